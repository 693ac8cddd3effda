package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/respira-diag/fuzzydx/internal/shared/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, roles ...string) string {
	t.Helper()
	return signExpiring(t, secret, time.Now().Add(time.Hour), roles...)
}

func signExpiring(t *testing.T, secret string, exp time.Time, roles ...string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "operator-1"},
		Roles:            roles,
	}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestMiddlewareAndRoles(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: testSecret, AdminRole: "admin"}
	h := Middleware(cfg)(RequireRoles("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()).Subject != "operator-1" {
			t.Errorf("Expected subject operator-1")
		}
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", "admin"), http.StatusUnauthorized},
		{"expired", "Bearer " + signExpiring(t, testSecret, time.Now().Add(-time.Minute), "admin"), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signExpiring(t, testSecret, time.Time{}, "admin"), http.StatusUnauthorized},
		{"lower-case scheme", "bearer " + signToken(t, testSecret, "admin"), http.StatusNoContent},
		{"missing role", "Bearer " + signToken(t, testSecret, "clinician"), http.StatusForbidden},
		{"admin", "Bearer " + signToken(t, testSecret, "admin"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/reload", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}
