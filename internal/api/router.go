package api

import (
	"log/slog"
	"net/http"
	"time"

	"credit-engine/internal/api/handler"
	mw "credit-engine/internal/api/middleware"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	_ "credit-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services groups the collaborators the HTTP layer depends on.
type Services struct {
	Customers  customer.CustomerService
	Loans      loan.LoanService
	Scorer     credit.CreditScorer
	Evaluator  credit.Evaluator
	Issuer     credit.Issuer
	Ingestion  handler.IngestionDispatcher
	RedisCache *redis.Client
}

func SetupRouter(svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, svc.RedisCache, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, svc, logger)
	setupLoanRoutes(router, cfg, svc, logger)
	setupIngestionRoutes(router, cfg, svc, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc.Customers, svc.Scorer, logger)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, handler.RespondError, logger))
		r.Post("/register", h.Register)
		r.Get("/customers", h.ListCustomers)
		r.Get("/customers/{customerID}", h.GetCustomer)
	})
}

func setupLoanRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc.Evaluator, svc.Issuer, svc.Loans, logger)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, handler.RespondError, logger))
		r.Post("/check-eligibility", h.CheckEligibility)
		r.Post("/create-loan", h.CreateLoan)
		r.Get("/view-loan/{loanID}", h.ViewLoan)
		r.Get("/view-loans/{customerID}", h.ViewLoans)
	})
}

func setupIngestionRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	if svc.Ingestion == nil {
		logger.Warn("No ingestion dispatcher configured, /ingest routes are disabled")
		return
	}
	h := handler.NewIngestionHandler(svc.Ingestion, cfg.Ingestion, logger)

	router.Route("/ingest", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, handler.RespondError, logger))
		r.Post("/", h.StartIngestion)
		r.Get("/{taskID}", h.GetIngestionTask)
	})
}
