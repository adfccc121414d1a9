package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobpool/internal/apperrors"
	"jobpool/internal/health"
	"jobpool/internal/pool"
)

// fakePool implements Service for handler tests.
type fakePool struct {
	submitErr error
	submitted []pool.Submission
	views     []pool.View
	getView   pool.View
	getErr    error
}

func (f *fakePool) Submit(sub pool.Submission) error {
	f.submitted = append(f.submitted, sub)
	return f.submitErr
}

func (f *fakePool) Snapshot() []pool.View { return f.views }

func (f *fakePool) Get(id string) (pool.View, error) { return f.getView, f.getErr }

func postJob(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.CreateJob(w, req)
	return w
}

func TestHandler_CreateJob(t *testing.T) {
	t.Parallel()
	fake := &fakePool{}
	handler := NewHandler(fake, nil)

	w := postJob(t, handler, `{"type":"echo","payload":{"message":"hello"}}`)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status %d, got %d", http.StatusAccepted, w.Code)
	}
	if len(fake.submitted) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(fake.submitted))
	}
	if fake.submitted[0].Kind != pool.KindEcho {
		t.Errorf("Expected echo submission, got %s", fake.submitted[0].Kind)
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "accepted" {
		t.Errorf("Expected accepted status, got %q", resp["status"])
	}
}

func TestHandler_CreateJob_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "invalid json"},
		{"unknown type", `{"type":"exec","payload":{"command":"rm"}}`},
		{"empty echo message", `{"type":"echo","payload":{"message":""}}`},
		{"sleep too long", `{"type":"sleep","payload":{"milliseconds":4000000000}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakePool{}
			handler := NewHandler(fake, nil)

			w := postJob(t, handler, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if len(fake.submitted) != 0 {
				t.Error("Invalid submission should not reach the pool")
			}
		})
	}
}

func TestHandler_CreateJob_QueueClosed(t *testing.T) {
	t.Parallel()
	fake := &fakePool{submitErr: apperrors.QueueClosed("pool.submit")}
	handler := NewHandler(fake, nil)

	w := postJob(t, handler, `{"type":"echo","payload":{"message":"hello"}}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestHandler_ListJobs(t *testing.T) {
	t.Parallel()
	fake := &fakePool{views: []pool.View{
		{ID: "a", Kind: pool.KindEcho, State: pool.StateSucceeded, Result: "hello"},
		{ID: "b", Kind: pool.KindSleep, State: pool.StateRunning},
	}}
	handler := NewHandler(fake, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()
	handler.ListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Jobs []pool.View `json:"jobs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].Result != "hello" {
		t.Errorf("Expected result hello, got %q", resp.Jobs[0].Result)
	}
}

func TestHandler_GetJob_NotFound(t *testing.T) {
	t.Parallel()
	fake := &fakePool{getErr: apperrors.NotFound("job", "missing")}
	handler := NewHandler(fake, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs/{jobId}", handler.GetJob)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandler_GetJob(t *testing.T) {
	t.Parallel()
	fake := &fakePool{getView: pool.View{ID: "abc", State: pool.StateQueued}}
	handler := NewHandler(fake, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs/{jobId}", handler.GetJob)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var view pool.View
	json.NewDecoder(w.Body).Decode(&view)
	if view.ID != "abc" || view.State != pool.StateQueued {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestHandler_Livez(t *testing.T) {
	t.Parallel()
	handler := NewHandler(nil, health.NewChecker(nil))

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	handler.Livez(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response health.Response
	json.NewDecoder(w.Body).Decode(&response)
	if response.Status != health.StatusHealthy {
		t.Errorf("Expected status healthy, got %s", response.Status)
	}
}

func TestHandler_Readyz_NoPool(t *testing.T) {
	t.Parallel()
	handler := NewHandler(nil, health.NewChecker(nil))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	handler.Readyz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var response health.Response
	json.NewDecoder(w.Body).Decode(&response)
	if response.Status != health.StatusUnhealthy {
		t.Errorf("Expected status unhealthy, got %s", response.Status)
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	t.Parallel()
	router := NewRouter(RouterConfig{
		Pool:          &fakePool{},
		HealthChecker: health.NewChecker(nil),
		APIKey:        "secret",
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong key", "Bearer wrong", http.StatusUnauthorized},
		{"valid key", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRouter_HealthBypassesAuth(t *testing.T) {
	t.Parallel()
	router := NewRouter(RouterConfig{
		Pool:          &fakePool{},
		HealthChecker: health.NewChecker(nil),
		APIKey:        "secret",
	})

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestMiddleware_Recovery(t *testing.T) {
	t.Parallel()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	handler := withRecovery(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	// Should not panic
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestMiddleware_ContentType(t *testing.T) {
	t.Parallel()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := withJSONContentType(inner)

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"no content type post", http.MethodPost, "", http.StatusOK},
		{"xml post", http.MethodPost, "application/xml", http.StatusUnsupportedMediaType},
		{"get ignores content type", http.MethodGet, "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/test", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMiddleware_CORS_Preflight(t *testing.T) {
	t.Parallel()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Preflight should not reach the inner handler")
	})
	handler := withCORS(inner)

	req := httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}
