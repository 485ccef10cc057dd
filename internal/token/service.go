package token

import (
	"context"
	"errors"
	"time"

	"library-platform/internal/auth"
	"library-platform/pkg/logger"
)

// Refresh-path business errors. The HTTP boundary collapses all of these
// (plus the auth verification errors) to a single unauthorized outcome so
// callers cannot probe which tokens exist; internally each kind stays
// distinguishable for logging.
var (
	ErrWrongTokenType = errors.New("token is not a refresh token")
	ErrUnknownToken   = errors.New("refresh token unknown")
	ErrTokenRevoked   = errors.New("refresh token revoked")
	ErrUnknownSubject = errors.New("subject unknown")
)

// IsUnauthorized reports whether err is a business failure of the token
// flows, as opposed to a storage/operational failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrWrongTokenType) ||
		errors.Is(err, ErrUnknownToken) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrUnknownSubject) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrBadSignature) ||
		errors.Is(err, auth.ErrTokenMalformed)
}

// AuthorityResolver yields the current authorities of a subject.
// Implementations return ErrUnknownSubject when the subject no longer
// resolves to a user.
type AuthorityResolver interface {
	AuthoritiesFor(ctx context.Context, subject string) ([]string, error)
}

// Service orchestrates the refresh token lifecycle: issuing pairs on login,
// rotating on refresh, revoking on logout. A token lineage is Active from
// Save until logout or rotation revokes it; Revoked is terminal.
type Service struct {
	signer   *auth.Signer
	store    Store
	resolver AuthorityResolver
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(signer *auth.Signer, store Store, resolver AuthorityResolver) *Service {
	return &Service{
		signer:   signer,
		store:    store,
		resolver: resolver,
		clock:    time.Now,
	}
}

// Login signs an access/refresh pair for an already-authenticated subject
// and persists the refresh record. Primary credential checks happen
// upstream; this method trusts its input. If persistence fails no tokens
// are returned, so the signed strings never reach the caller.
func (s *Service) Login(ctx context.Context, subject string, authorities []string) (TokenPair, error) {
	now := s.clock().UTC()

	access, err := s.signer.SignAccess(now, subject, authorities)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signer.SignRefresh(now, subject)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.Save(ctx, refresh, subject, now.Add(s.signer.RefreshTTL())); err != nil {
		return TokenPair{}, err
	}

	logger.From(ctx).Debug("refresh token issued", "subject", subject)
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token: the presented token is verified against
// signature, type marker and the persisted record, the subject's authorities
// are re-resolved from the credential store (never copied from the stale
// claim), the old record is revoked and a fresh pair is issued.
//
// The old record is revoked with a conditional update before the new pair
// is persisted, so at most one of several concurrent refreshes of the same
// token can succeed; the losers observe ErrTokenRevoked. A crash between
// revoke and save leaves the user with no usable refresh token (re-login),
// never with two active lineages for one rotation.
func (s *Service) Refresh(ctx context.Context, tokenString string) (TokenPair, error) {
	now := s.clock().UTC()
	log := logger.From(ctx)

	claims, err := s.signer.Verify(tokenString, now)
	if err != nil {
		return TokenPair{}, err
	}
	if !claims.IsRefresh() {
		return TokenPair{}, ErrWrongTokenType
	}

	rec, err := s.store.Find(ctx, tokenString)
	if err != nil {
		return TokenPair{}, err
	}
	if rec.Revoked {
		// Reuse of a rotated-out token is a theft signal, not just a stale client.
		log.Warn("revoked refresh token presented", "subject", rec.Subject)
		return TokenPair{}, ErrTokenRevoked
	}

	authorities, err := s.resolver.AuthoritiesFor(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, err
	}

	revoked, err := s.store.Revoke(ctx, tokenString)
	if err != nil {
		return TokenPair{}, err
	}
	if !revoked {
		// A concurrent rotation won between Find and Revoke.
		log.Warn("concurrent refresh lost rotation race", "subject", rec.Subject)
		return TokenPair{}, ErrTokenRevoked
	}

	access, err := s.signer.SignAccess(now, claims.Subject, authorities)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signer.SignRefresh(now, claims.Subject)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Save(ctx, refresh, claims.Subject, now.Add(s.signer.RefreshTTL())); err != nil {
		return TokenPair{}, err
	}

	log.Debug("refresh token rotated", "subject", claims.Subject)
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented refresh token. Unknown or already-revoked
// tokens are a silent no-op; only storage failures are reported.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	revoked, err := s.store.Revoke(ctx, tokenString)
	if err != nil {
		return err
	}
	if revoked {
		logger.From(ctx).Debug("refresh token revoked on logout")
	}
	return nil
}

// PurgeExpired removes refresh records whose expiry has passed.
// Maintenance operation, driven by a background ticker in main.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredBefore(ctx, s.clock().UTC())
}
