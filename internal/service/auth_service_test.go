package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
	"github.com/lllypuk/taskboard/internal/service"
	"github.com/lllypuk/taskboard/tests/mocks"
)

const testJWTSecret = "service-test-secret-0123456789"

// memoryTokenStore keeps refresh token ids in a map.
type memoryTokenStore struct {
	mu       sync.Mutex
	tokens   map[string]time.Duration
	failNext error
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]time.Duration)}
}

func (s *memoryTokenStore) key(userID id.ID, tokenID string) string {
	return userID.String() + ":" + tokenID
}

func (s *memoryTokenStore) StoreRefreshToken(_ context.Context, userID id.ID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	s.tokens[s.key(userID, tokenID)] = ttl
	return nil
}

func (s *memoryTokenStore) CheckRefreshToken(_ context.Context, userID id.ID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[s.key(userID, tokenID)]; !ok {
		return auth.ErrTokenNotFound
	}
	return nil
}

func (s *memoryTokenStore) DeleteRefreshToken(_ context.Context, userID id.ID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, tokenID)
	if _, ok := s.tokens[k]; !ok {
		return auth.ErrTokenNotFound
	}
	delete(s.tokens, k)
	return nil
}

func (s *memoryTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type authFixture struct {
	svc    *service.AuthService
	users  *mocks.MockUserRepository
	store  *memoryTokenStore
	issuer *auth.TokenIssuer
}

func newAuthFixture(t *testing.T, opts ...auth.IssuerOption) *authFixture {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{Secret: testJWTSecret}, opts...)
	require.NoError(t, err)

	f := &authFixture{
		users:  mocks.NewMockUserRepository(),
		store:  newMemoryTokenStore(),
		issuer: issuer,
	}
	f.svc = service.NewAuthService(service.AuthServiceConfig{
		UserRepo:   f.users,
		Hasher:     auth.NewPasswordHasher(bcrypt.MinCost),
		Issuer:     issuer,
		TokenStore: f.store,
	})
	return f
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		f := newAuthFixture(t)

		u, err := f.svc.Register(context.Background(), "Ann", "  Ann@Example.com ", "secret1")
		require.NoError(t, err)

		assert.Equal(t, "Ann", u.Name())
		assert.Equal(t, "ann@example.com", u.Email())
		assert.NotEqual(t, "secret1", u.PasswordHash())
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte("secret1")))
		assert.Equal(t, 1, f.users.CallCount("Create"))
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name     string
			userName string
			email    string
			password string
			wantErr  error
		}{
			{"empty name", "  ", "ann@example.com", "secret1", service.ErrInvalidName},
			{"bad email", "Ann", "not-an-email", "secret1", service.ErrInvalidEmail},
			{"short password", "Ann", "ann@example.com", "12345", service.ErrWeakPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newAuthFixture(t)
				_, err := f.svc.Register(context.Background(), tt.userName, tt.email, tt.password)
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, errs.ErrInvalidInput)
				assert.Zero(t, f.users.CallCount("Create"))
			})
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Register(context.Background(), "Other", "ANN@example.com", "secret2")
		require.ErrorIs(t, err, service.ErrEmailExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	registered, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	t.Run("issues tokens and stores refresh id", func(t *testing.T) {
		result, loginErr := f.svc.Login(context.Background(), "ann@example.com", "secret1")
		require.NoError(t, loginErr)

		assert.Equal(t, registered.ID(), result.User.ID())
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.InDelta(t, auth.DefaultAccessTokenTTL.Seconds(), result.Tokens.ExpiresIn.Seconds(), 2)
		assert.Equal(t, 1, f.store.count())

		claims, validateErr := f.issuer.Validate(context.Background(), result.Tokens.AccessToken)
		require.NoError(t, validateErr)
		assert.Equal(t, registered.ID().String(), claims.Subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, loginErr := f.svc.Login(context.Background(), "ann@example.com", "wrong-password")
		require.ErrorIs(t, loginErr, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, loginErr := f.svc.Login(context.Background(), "bob@example.com", "secret1")
		require.ErrorIs(t, loginErr, service.ErrInvalidCredentials)
	})

	t.Run("token store failure", func(t *testing.T) {
		f.store.failNext = errors.New("redis down")
		_, loginErr := f.svc.Login(context.Background(), "ann@example.com", "secret1")
		require.Error(t, loginErr)
		assert.NotErrorIs(t, loginErr, service.ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	login, err := f.svc.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	t.Run("rotates the refresh token", func(t *testing.T) {
		pair, refreshErr := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
		require.NoError(t, refreshErr)
		assert.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)
		assert.Equal(t, 1, f.store.count())

		// The old token is revoked.
		_, replayErr := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
		require.ErrorIs(t, replayErr, service.ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, refreshErr := f.svc.Refresh(context.Background(), login.Tokens.AccessToken)
		require.ErrorIs(t, refreshErr, service.ErrInvalidRefreshToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, refreshErr := f.svc.Refresh(context.Background(), "not-a-jwt")
		require.ErrorIs(t, refreshErr, service.ErrInvalidRefreshToken)
		require.ErrorIs(t, refreshErr, errs.ErrForbidden)
	})
}

func TestAuthService_RefreshExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	f := newAuthFixture(t, auth.WithClock(clock))

	_, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	login, err := f.svc.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	now = now.Add(auth.DefaultRefreshTokenTTL + time.Hour)

	_, err = f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	login, err := f.svc.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), login.Tokens.RefreshToken))
	assert.Zero(t, f.store.count())

	// Idempotent
	require.NoError(t, f.svc.Logout(context.Background(), login.Tokens.RefreshToken))

	_, err = f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	require.ErrorIs(t, f.svc.Logout(context.Background(), "garbage"), service.ErrInvalidRefreshToken)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	registered, err := f.svc.Register(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	u, err := f.svc.Me(context.Background(), registered.ID())
	require.NoError(t, err)
	assert.Equal(t, registered.Email(), u.Email())

	_, err = f.svc.Me(context.Background(), id.New())
	require.ErrorIs(t, err, service.ErrAccountNotFound)
}
