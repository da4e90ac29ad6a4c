package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/taskboard/internal/auth"
	"github.com/mmynk/taskboard/internal/models"
)

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"valid token", "Bearer " + token, "a@x.com"},
		{"invalid token", "Bearer nope", ""},
		{"wrong scheme", "Basic " + token, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := OptionalAuth(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetEmail(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rec.Code)
			}
			if got != tt.want {
				t.Errorf("email: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/tasks/1", nil))

	if called {
		t.Error("preflight should not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Logging(m.Middleware(mux))

	for _, path := range []string{"/api/tasks/1", "/api/tasks/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, path, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	got := testutil.ToFloat64(m.requests.WithLabelValues("DELETE /api/tasks/{id}", http.MethodDelete, "404"))
	if got != 2 {
		t.Errorf("matched route count: got %v, want 2", got)
	}
	got = testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404"))
	if got != 1 {
		t.Errorf("unmatched count: got %v, want 1", got)
	}
}
