package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/middleware"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/diagnosis"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/patients"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/support"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/metrics"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubGateway struct{}

func (stubGateway) Load(context.Context) error { return nil }

func (stubGateway) Open(context.Context, checkout.SessionDescriptor) (<-chan checkout.GatewayOutcome, error) {
	return make(chan checkout.GatewayOutcome, 1), nil
}

func (stubGateway) Confirm(context.Context, checkout.GatewayResponse) error { return nil }

func (stubGateway) Dismiss(context.Context, string) error { return nil }

type stubOrders struct{}

func (stubOrders) CreateOrder(_ context.Context, amount int64) (checkout.PendingOrder, error) {
	return checkout.PendingOrder{OrderID: "order_1", Amount: amount * 100, Currency: checkout.DefaultCurrency}, nil
}

type stubVerifier struct{}

func (stubVerifier) VerifyPayment(context.Context, checkout.PaymentConfirmation) error { return nil }

type stubDiagnoser struct{}

func (stubDiagnoser) Diagnose(context.Context, types.Session, string) (diagnosis.Result, error) {
	return diagnosis.Result{Kind: diagnosis.KindNeedsClarification, Prompt: diagnosis.DefaultClarificationPrompt}, nil
}

type stubCatalog struct{}

func (stubCatalog) List(context.Context) []types.Product {
	return []types.Product{{ID: "7", Name: "Ashwagandha", Price: "250"}}
}

func (stubCatalog) Find(context.Context, string) (types.Product, error) {
	return types.Product{ID: "7", Name: "Ashwagandha", Price: "250"}, nil
}

type stubLedger struct{}

func (stubLedger) ListUnresolved(context.Context, types.Session) ([]support.Entry, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:         "dev",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Diagnosis: config.DiagnosisConfig{
			MaxTextLength:   4000,
			RateLimit:       20,
			RateLimitWindow: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T, reg *prometheus.Registry) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry, err := patients.NewRegistry(patients.Deps{
		Gateway:   stubGateway{},
		Callbacks: stubGateway{},
		Orders:    stubOrders{},
		Verifier:  stubVerifier{},
		Diagnoser: stubDiagnoser{},
		Logger:    logg,
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if reg != nil {
		registerer = reg
		gatherer = reg
	}
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		registry,
		stubCatalog{},
		stubLedger{},
		metrics.NewHTTPMetrics(registerer),
		gatherer,
	)
}

func TestHealthRoutesArePublic(t *testing.T) {
	router := newTestRouter(t, nil)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAPIRequiresPatientHeader(t *testing.T) {
	router := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without patient header got %d", resp.Code)
	}
}

func TestAPIRoutesResolve(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/v1/catalog", "", http.StatusOK},
		{http.MethodGet, "/api/v1/cart", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":"7"}`, http.StatusOK},
		{http.MethodPatch, "/api/v1/cart/items/7", `{"delta":1}`, http.StatusOK},
		{http.MethodGet, "/api/v1/checkout", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/checkout/unresolved", "", http.StatusOK},
		{http.MethodPost, "/api/v1/diagnosis", `{"text":"tired"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/diagnosis", "", http.StatusOK},
		{http.MethodDelete, "/api/v1/cart", "", http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set(middleware.PatientHeader, "meera")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("%s %s: expected %d got %d (%s)", tc.method, tc.path, tc.status, resp.Code, resp.Body.String())
		}
	}
}

func TestCheckoutStartWithoutRedisSkipsIdempotency(t *testing.T) {
	router := newTestRouter(t, nil)

	add := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"7"}`))
	add.Header.Set(middleware.PatientHeader, "meera")
	router.ServeHTTP(httptest.NewRecorder(), add)

	start := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	start.Header.Set(middleware.PatientHeader, "meera")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, start)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.PatientHeader)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(t, reg)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in scrape output")
	}
}

func TestMetricsEndpointAbsentWithoutGatherer(t *testing.T) {
	router := newTestRouter(t, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
