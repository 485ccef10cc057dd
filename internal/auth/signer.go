package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure kinds. Callers collapse these to a single
// unauthorized outcome at the HTTP boundary but log them individually.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// Signer produces and checks signed claim sets using an RSA key pair.
// The key is owned by the Signer and injected at construction; it is
// read-only for the life of the process.
type Signer struct {
	key        *rsa.PrivateKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSigner builds a Signer from config. When no signing key is configured
// (non-production only; config enforces this) an ephemeral 2048-bit key pair
// is generated, so tokens do not survive a restart.
func NewSigner(cfg config.AuthConfig) (*Signer, error) {
	var key *rsa.PrivateKey
	var err error

	if strings.TrimSpace(cfg.SigningKeyPEM) != "" {
		key, err = jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.SigningKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse signing key: %w", err)
		}
	} else {
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}

	return &Signer{
		key:        key,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *Signer) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

// SignAccess builds and signs an access claim set for subject with the
// given authorities joined into the scope claim.
func (s *Signer) SignAccess(now time.Time, subject string, authorities []string) (string, error) {
	claims := Claims{
		RegisteredClaims: s.registered(now, subject, s.accessTTL),
		Scope:            strings.Join(authorities, " "),
	}
	return s.sign(claims)
}

// SignRefresh builds and signs a refresh claim set for subject.
func (s *Signer) SignRefresh(now time.Time, subject string) (string, error) {
	claims := Claims{
		RegisteredClaims: s.registered(now, subject, s.refreshTTL),
		Type:             TokenTypeRefresh,
	}
	return s.sign(claims)
}

// Verify checks signature and time validity and returns the claim set.
// Validity is re-derived on every call; nothing is cached. Failures map to
// ErrTokenExpired, ErrBadSignature or ErrTokenMalformed.
func (s *Signer) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parser := jwt.NewParser(opts...)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return &s.key.PublicKey, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}
	return claims, nil
}

func (s *Signer) registered(now time.Time, subject string, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (s *Signer) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrTokenMalformed
	}
}
