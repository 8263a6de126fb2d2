package appMiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, role string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestAdminChain(t *testing.T) {
	var seenUser string
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Authenticate(testSecret)(RequireRole(RoleAdmin)(final))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Malformed header", "Token abc", http.StatusUnauthorized},
		{"Garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"Wrong secret", "Bearer " + signToken(t, []byte("other"), RoleAdmin, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"Expired", "Bearer " + signToken(t, testSecret, RoleAdmin, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"Not admin", "Bearer " + signToken(t, testSecret, "user", time.Now().Add(time.Hour)), http.StatusForbidden},
		{"Admin", "Bearer " + signToken(t, testSecret, RoleAdmin, time.Now().Add(time.Hour)), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser = ""
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/doors/geocode", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "user-1", seenUser)
			}
		})
	}
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	handler := RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
