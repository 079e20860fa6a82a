package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-hmac-key")

func signToken(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func echoPrincipal(captured **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorExtractsPrincipal(t *testing.T) {
	var got *Principal
	handler := Authenticator(MiddlewareConfig{HMACKey: testKey})(echoPrincipal(&got))

	token := signToken(t, jwt.MapClaims{
		"user_id":    float64(42),
		"unit_id":    float64(7),
		"name":       "Rina",
		"can_update": true,
		"can_read":   1,
	}, testKey)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, int64(7), got.UnitID)
	assert.Equal(t, "Rina", got.Name)
	assert.True(t, got.Has(CanUpdate))
	assert.True(t, got.Has(CanRead))
	assert.False(t, got.Has(CanApprove))
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	var got *Principal
	handler := Authenticator(MiddlewareConfig{HMACKey: testKey})(echoPrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestAuthenticatorRejectsBadSignature(t *testing.T) {
	var got *Principal
	handler := Authenticator(MiddlewareConfig{HMACKey: testKey})(echoPrincipal(&got))

	token := signToken(t, jwt.MapClaims{"user_id": float64(42)}, []byte("wrong-key"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorRejectsMissingUserID(t *testing.T) {
	handler := Authenticator(MiddlewareConfig{HMACKey: testKey})(http.NotFoundHandler())

	token := signToken(t, jwt.MapClaims{"name": "no id"}, testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorTrustedProxyMode(t *testing.T) {
	var got *Principal
	handler := Authenticator(MiddlewareConfig{})(echoPrincipal(&got))

	// No key configured: an unsigned-by-us token still parses.
	token := signToken(t, jwt.MapClaims{"user_id": float64(9)}, []byte("some-upstream-key"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.ID)
}

func TestRequireCapability(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireCapability(CanApprove)(next)

	// No principal: 401.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Principal without the capability: 403.
	p := &Principal{ID: 1, Capabilities: map[Capability]bool{CanRead: true}}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), p))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Principal with it: through.
	p.Capabilities[CanApprove] = true
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), p))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
