package diagnosis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/auth"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/logging"
)

var testAuth = config.AuthConfig{JWTSecret: "test-secret", AdminRole: "admin"}

func testRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	return NewHandler(svc, testAuth, logging.Discard()).Routes()
}

func adminToken(t *testing.T, roles ...string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAuth.JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestDiagnoseHandler(t *testing.T) {
	router := testRouter(t, testService(t))

	body := `{"inputs": {"demam": 5, "batuk": 5}, "strategy": "weighted", "top_n": 2}`
	req := httptest.NewRequest(http.MethodPost, "/diagnosis", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Diagnoses) != 2 {
		t.Fatalf("Expected 2 diagnoses, got %d", len(resp.Diagnoses))
	}
	if resp.Diagnoses[0].Disease != "ISPA" {
		t.Errorf("Expected ISPA first, got %s", resp.Diagnoses[0].Disease)
	}
	if resp.KnowledgeVersion.IsZero() {
		t.Error("Expected knowledge version in response")
	}
}

func TestDiagnoseHandlerErrors(t *testing.T) {
	router := testRouter(t, testService(t))

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"inputs":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", `{"input": {"demam": 5}}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"out of range", `{"inputs": {"demam": 42}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown strategy", `{"inputs": {}, "strategy": "sugeno"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/diagnosis", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if body["code"] != tt.code {
				t.Errorf("Expected code %s, got %v", tt.code, body["code"])
			}
		})
	}
}

func TestSymptomsAndKnowledgeHandlers(t *testing.T) {
	router := testRouter(t, testService(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diagnosis/symptoms", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var symptoms SymptomsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &symptoms); err != nil {
		t.Fatalf("Failed to decode symptoms: %v", err)
	}
	if len(symptoms.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %d", len(symptoms.Categories))
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var report knowledge.LoadReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.Rules != 5 || report.Source != "csv" {
		t.Errorf("Expected 5 rules from csv, got %d from %s", report.Rules, report.Source)
	}
}

func TestReloadHandlerRequiresAdmin(t *testing.T) {
	router := testRouter(t, testService(t))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"clinician", adminToken(t, "clinician"), http.StatusForbidden},
		{"admin", adminToken(t, "admin"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/knowledge/reload", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlersBeforeLoad(t *testing.T) {
	store := knowledge.NewStore(&knowledge.YAMLSource{Path: "missing.yaml"}, logging.Discard())
	router := testRouter(t, NewService(store, Options{}, logging.Discard()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diagnosis/symptoms", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
