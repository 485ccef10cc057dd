package users

import (
	"context"
	"errors"
	"strings"

	"library-platform/internal/rbac"
	"library-platform/internal/token"
	"library-platform/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrBadCredentials covers unknown email and wrong password alike;
	// callers must not be able to tell the two apart.
	ErrBadCredentials = errors.New("bad credentials")

	ErrInvalidArgument = errors.New("invalid argument")
)

// dummyHash keeps Authenticate doing a bcrypt comparison even for unknown
// emails so response timing does not reveal which accounts exist.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("placeholder"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Service provides registration and primary credential checks.
// It is the authentication entry point that the token lifecycle trusts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user with a bcrypt-hashed password. An empty role
// defaults to USER.
func (s *Service) Register(ctx context.Context, email, password, role string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidArgument
	}
	if role == "" {
		role = rbac.AuthorityUser
	}
	if !rbac.Known(role) {
		return User{}, ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u, err := s.repo.Create(ctx, User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		return User{}, err
	}

	logger.From(ctx).Info("user registered", "email", u.Email, "role", u.Role)
	return u, nil
}

// Authenticate validates primary credentials and returns the account.
// Unknown email, wrong password and deactivated accounts all collapse to
// ErrBadCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	if !u.Active {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// AuthoritiesFor resolves the current authorities of a token subject.
// It satisfies token.AuthorityResolver, so rotations always re-derive the
// scope from the live account instead of the stale claim. Deactivated and
// deleted accounts stop refreshing.
func (s *Service) AuthoritiesFor(ctx context.Context, subject string) ([]string, error) {
	u, err := s.repo.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, token.ErrUnknownSubject
		}
		return nil, err
	}
	if !u.Active {
		return nil, token.ErrUnknownSubject
	}
	return u.Authorities(), nil
}

// Seed creates the default accounts when they are missing. Startup-only.
func (s *Service) Seed(ctx context.Context) error {
	defaults := []struct {
		email string
		role  string
	}{
		{"user@example.com", rbac.AuthorityUser},
		{"librarian@example.com", rbac.AuthorityLibrarian},
		{"admin@example.com", rbac.AuthorityAdmin},
	}

	for _, d := range defaults {
		_, err := s.repo.FindByEmail(ctx, d.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := s.Register(ctx, d.email, "password", d.role); err != nil && !errors.Is(err, ErrEmailTaken) {
			return err
		}
	}
	return nil
}
