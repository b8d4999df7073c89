package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"iss":       "test-issuer",
		"scopes":    []string{ScopeTemplatesRead, ScopeTemplatesWrite},
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(signed, Config{Secret: testSecret, Issuer: "test-issuer"})
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.True(t, claims.HasScope(ScopeTemplatesRead))
	require.True(t, claims.HasScope(ScopeTemplatesWrite))
	require.False(t, claims.HasScope("templates:admin"))
}

func TestParseRejectsMissingTenant(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "test-issuer",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := Parse(signed, Config{Secret: testSecret, Issuer: "test-issuer"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"iss":       "someone-else",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	_, err := Parse(signed, Config{Secret: testSecret, Issuer: "test-issuer"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseScopeString(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"iss":       "test-issuer",
		"scopes":    "templates:read templates:write",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(signed, Config{Secret: testSecret, Issuer: "test-issuer"})
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeTemplatesRead))
	require.True(t, claims.HasScope(ScopeTemplatesWrite))
}

func TestMiddlewareSkipsHealthz(t *testing.T) {
	mw := NewMiddleware(Config{Secret: testSecret, Issuer: "test-issuer"}, func(r *http.Request) bool {
		return r.URL.Path == "/healthz"
	})

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/templates", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewarePopulatesContext(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"iss":       "test-issuer",
		"scopes":    []string{ScopeTemplatesRead},
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	mw := NewMiddleware(Config{Secret: testSecret, Issuer: "test-issuer"}, nil)

	var seen *Claims
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/templates", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "tenant-1", seen.TenantID)
}
