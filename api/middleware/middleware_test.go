package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

func TestPatientSessionRequiresHeader(t *testing.T) {
	called := false
	handler := PatientSession(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run without a patient")
	}
}

func TestPatientSessionAttachesTrimmedUsername(t *testing.T) {
	var got types.Session
	handler := PatientSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(PatientHeader, "  Asha  ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.Username != "Asha" {
		t.Fatalf("expected trimmed username, got %q", got.Username)
	}
}

func TestSessionFromContextRejectsBlank(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("expected no session on empty context")
	}
	if _, ok := SessionFromContext(WithSession(context.Background(), types.Session{})); ok {
		t.Fatal("blank session must not be reported")
	}
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func limitedRequest(username string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/diagnosis", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	return req.WithContext(WithSession(req.Context(), types.NewSession(username)))
}

func TestRateLimitPerPatient(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("predict", time.Minute, 2, 0), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("asha"))
		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("ravi"))
	if rec.Code != http.StatusOK {
		t.Fatalf("another patient must have their own window, got %d", rec.Code)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := newFakeLimiter()
	handler := RateLimit(NewRateLimitPolicy("predict", time.Minute, 0, 1), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), limitedRequest("asha"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("ravi"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected shared ip to be limited, got %d", rec.Code)
	}
}

func TestRateLimitDependencyFailure(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("predict", time.Minute, 1, 0), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("asha"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RateLimit(NewRateLimitPolicy("predict", 0, 5, 5), newFakeLimiter(), nil)(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("asha"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

type requestObservation struct {
	method string
	route  string
	status int
}

type fakeRequestRecorder struct {
	calls []requestObservation
}

func (f *fakeRequestRecorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.calls = append(f.calls, requestObservation{method: method, route: route, status: status})
}

func TestLoggingRecordsRoutePattern(t *testing.T) {
	recorder := &fakeRequestRecorder{}
	r := chi.NewRouter()
	r.Use(Logging(logger.Nop(), recorder))
	r.Patch("/api/v1/cart/items/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/42", nil))

	if len(recorder.calls) != 1 {
		t.Fatalf("expected one observation, got %d", len(recorder.calls))
	}
	got := recorder.calls[0]
	if got.route != "/api/v1/cart/items/{productId}" || got.status != http.StatusAccepted || got.method != http.MethodPatch {
		t.Fatalf("unexpected observation %+v", got)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-1")
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected request id to be echoed")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\nforged=1")
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got == "" || got == "bad id\nforged=1" {
		t.Fatalf("expected unsafe request id to be replaced, got %q", got)
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", PatientHeader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("expected origin to be allowed, headers=%v", rec.Header())
	}
}
