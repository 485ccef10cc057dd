package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"library-platform/internal/auth"
	"library-platform/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same conditional-revoke semantics
// as the Postgres implementation.
type memStore struct {
	mu      sync.Mutex
	records map[string]*RefreshToken
	nextID  int64

	failSave bool
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*RefreshToken{}}
}

func (m *memStore) Save(ctx context.Context, tokenString, subject string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("storage unavailable")
	}
	m.nextID++
	m.records[tokenString] = &RefreshToken{
		ID:        m.nextID,
		Token:     tokenString,
		Subject:   subject,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *memStore) Find(ctx context.Context, tokenString string) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[tokenString]
	if !ok {
		return RefreshToken{}, ErrUnknownToken
	}
	return *rec, nil
}

func (m *memStore) Revoke(ctx context.Context, tokenString string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[tokenString]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (m *memStore) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, rec := range m.records {
		if rec.ExpiresAt.Before(now) {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

type memResolver struct {
	mu          sync.Mutex
	authorities map[string][]string
}

func (r *memResolver) AuthoritiesFor(ctx context.Context, subject string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.authorities[subject]
	if !ok {
		return nil, ErrUnknownSubject
	}
	return a, nil
}

func (r *memResolver) set(subject string, authorities []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorities[subject] = authorities
}

func newTestService(t *testing.T) (*Service, *memStore, *memResolver) {
	t.Helper()
	signer, err := auth.NewSigner(config.AuthConfig{
		Issuer:          "library-platform",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	store := newMemStore()
	resolver := &memResolver{authorities: map[string][]string{}}
	return NewService(signer, store, resolver), store, resolver
}

func TestLogin_IssuesPairAndPersistsRecord(t *testing.T) {
	svc, store, resolver := newTestService(t)
	resolver.set("u1", []string{"LIBRARIAN"})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "u1", []string{"LIBRARIAN"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.signer.Verify(pair.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "LIBRARIAN", claims.Scope)
	assert.Equal(t, "u1", claims.Subject)

	refreshClaims, err := svc.signer.Verify(pair.RefreshToken, time.Now())
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefresh())

	rec, err := store.Find(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.Subject)
	assert.False(t, rec.Revoked)
}

func TestLogin_ReturnsNothingOnPersistFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failSave = true

	pair, err := svc.Login(context.Background(), "u1", []string{"USER"})
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Empty(t, pair.AccessToken)
	assert.Empty(t, pair.RefreshToken)
}

func TestRefresh_RotatesAndInvalidatesOldToken(t *testing.T) {
	svc, store, resolver := newTestService(t)
	resolver.set("u1", []string{"LIBRARIAN"})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "u1", []string{"LIBRARIAN"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The old record is revoked, the new one is active.
	oldRec, err := store.Find(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, oldRec.Revoked)

	newRec, err := store.Find(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.False(t, newRec.Revoked)

	// Replaying the original token is reuse: revoked, unauthorized.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"USER"})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "u1", []string{"USER"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrWrongTokenType)
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_RejectsExpiredToken(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"USER"})
	ctx := context.Background()

	issued := time.Now().Add(-8 * 24 * time.Hour)
	svc.clock = func() time.Time { return issued }
	pair, err := svc.Login(ctx, "u1", []string{"USER"})
	require.NoError(t, err)

	svc.clock = time.Now
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_RejectsUnpersistedToken(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"USER"})

	// Validly signed but never persisted (e.g. swept or issued elsewhere).
	orphan, err := svc.signer.SignRefresh(time.Now(), "u1")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), orphan)
	require.ErrorIs(t, err, ErrUnknownToken)
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_ReresolvesAuthorities(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"LIBRARIAN"})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "u1", []string{"LIBRARIAN"})
	require.NoError(t, err)

	// No role change: scope is unchanged after rotation.
	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.signer.Verify(next.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "LIBRARIAN", claims.Scope)

	// Role change: the next rotation picks up the fresh authorities,
	// never the stale claim.
	resolver.set("u1", []string{"ADMIN"})
	last, err := svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
	claims, err = svc.signer.Verify(last.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", claims.Scope)
}

func TestRefresh_UnknownSubjectIsUnauthorized(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "deleted-user", []string{"USER"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnknownSubject)
	assert.True(t, IsUnauthorized(err))
}

func TestLogout_IsIdempotent(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"USER"})
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "never-issued"))

	pair, err := svc.Login(ctx, "u1", []string{"USER"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.set("u1", []string{"USER"})
	ctx := context.Background()

	pair, err := svc.Login(ctx, "u1", []string{"USER"})
	require.NoError(t, err)

	const callers = 16
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrTokenRevoked)
	}
	assert.Equal(t, 1, wins, "exactly one concurrent refresh may produce a new pair")
}

func TestPurgeExpired_RemovesOnlyExpiredRecords(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Save(ctx, "stale", "u1", now.Add(-time.Hour)))
	require.NoError(t, store.Save(ctx, "live", "u1", now.Add(time.Hour)))

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Find(ctx, "stale")
	require.ErrorIs(t, err, ErrUnknownToken)
	_, err = store.Find(ctx, "live")
	require.NoError(t, err)
}
