package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
)

const (
	testKeyID    = "test-key-id"
	testIssuer   = "https://idp.example.com/realms/test"
	testAudience = "taskboard"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// setupJWKSServer serves the public half of key as a JWKS document.
func setupJWKSServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
	body, err := json.Marshal(map[string]any{
		"keys": []map[string]any{
			{"kty": "RSA", "alg": "RS256", "use": "sig", "kid": testKeyID, "n": n, "e": e},
		},
	})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func externalClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"sub":   "external-user-1",
		"aud":   testAudience,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
		"email": "ext@example.com",
		"name":  "External User",
	}
}

func TestNewJWKSValidator(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := auth.NewJWKSValidator(auth.JWKSValidatorConfig{})
		require.ErrorIs(t, err, auth.ErrJWKSFetchFailed)
	})

	t.Run("success", func(t *testing.T) {
		server := setupJWKSServer(t, generateTestKey(t))

		validator, err := auth.NewJWKSValidator(auth.JWKSValidatorConfig{JWKSURL: server.URL})
		require.NoError(t, err)
		require.NoError(t, validator.Close())
	})
}

func TestJWKSValidator_Validate(t *testing.T) {
	key := generateTestKey(t)
	server := setupJWKSServer(t, key)

	validator, err := auth.NewJWKSValidator(auth.JWKSValidatorConfig{
		JWKSURL:  server.URL,
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = validator.Close() })

	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		claims, validateErr := validator.Validate(ctx, signRS256(t, key, externalClaims()))
		require.NoError(t, validateErr)

		assert.Equal(t, "external-user-1", claims.Subject)
		assert.Equal(t, "ext@example.com", claims.Email)
		assert.Equal(t, "External User", claims.Name)
		assert.False(t, claims.ExpiresAt.IsZero())
	})

	t.Run("empty token", func(t *testing.T) {
		_, validateErr := validator.Validate(ctx, "")
		require.ErrorIs(t, validateErr, auth.ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, validateErr := validator.Validate(ctx, "not-a-valid-jwt")
		require.ErrorIs(t, validateErr, auth.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := externalClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()

		_, validateErr := validator.Validate(ctx, signRS256(t, key, claims))
		require.ErrorIs(t, validateErr, auth.ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := externalClaims()
		claims["iss"] = "https://other.example.com"

		_, validateErr := validator.Validate(ctx, signRS256(t, key, claims))
		require.ErrorIs(t, validateErr, auth.ErrInvalidIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := externalClaims()
		claims["aud"] = "someone-else"

		_, validateErr := validator.Validate(ctx, signRS256(t, key, claims))
		require.ErrorIs(t, validateErr, auth.ErrInvalidAudience)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := externalClaims()
		delete(claims, "sub")

		_, validateErr := validator.Validate(ctx, signRS256(t, key, claims))
		require.ErrorIs(t, validateErr, auth.ErrMissingSubject)
	})

	t.Run("foreign key", func(t *testing.T) {
		_, validateErr := validator.Validate(ctx, signRS256(t, generateTestKey(t), externalClaims()))
		require.ErrorIs(t, validateErr, auth.ErrInvalidToken)
	})

	t.Run("local tokens are not accepted", func(t *testing.T) {
		issued, issueErr := newIssuer(t).IssueAccessToken("user-1", "", "")
		require.NoError(t, issueErr)

		_, validateErr := validator.Validate(ctx, issued.Token)
		require.ErrorIs(t, validateErr, auth.ErrInvalidToken)
	})
}
