package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/controllers"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/middleware"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/metrics"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/redis"
)

// NewRouter wires the patient-facing API. redisClient may be nil, in which
// case idempotency and rate limiting are switched off.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	registry controllers.WorkspaceResolver,
	catalogService controllers.CatalogService,
	ledger controllers.UnresolvedLister,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		limiter          redis.RateLimiter
		readiness        = map[string]controllers.Pinger{}
	)
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
		readiness["redis"] = redisClient
	}

	predictPolicy := middleware.NewRateLimitPolicy(
		"predict",
		cfg.Diagnosis.RateLimitWindow,
		cfg.Diagnosis.RateLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PatientSession(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/catalog", controllers.CatalogList(catalogService))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(registry, logg))
			r.Delete("/", controllers.CartClear(registry, logg))
			r.Post("/items", controllers.CartAddItem(registry, catalogService, logg))
			r.Patch("/items/{productId}", controllers.CartAdjustItem(registry, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(registry, logg))
			r.Get("/", controllers.CheckoutCurrent(registry, logg))
			r.Post("/callback", controllers.CheckoutCallback(registry, logg))
			r.Post("/dismiss", controllers.CheckoutDismiss(registry, logg))
			r.Get("/unresolved", controllers.CheckoutUnresolved(ledger, logg))
		})

		r.Route("/diagnosis", func(r chi.Router) {
			r.With(middleware.RateLimit(predictPolicy, limiter, logg)).Post("/", controllers.DiagnosisSubmit(registry, logg))
			r.Get("/", controllers.DiagnosisLatest(registry, logg))
		})
	})

	return r
}
