package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"journalledger/internal/engagement"
	mw "journalledger/internal/middleware"
)

type RouterConfig struct {
	Service   *engagement.Service
	Users     UserStore
	JWTSecret []byte
	Logger    *zap.Logger
	Limiter   *mw.WriteLimiter
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	authHandler := NewAuthHandler(cfg.Users, cfg.JWTSecret, logger)
	journalHandler := NewJournalHandler(cfg.Service)
	statsHandler := NewStatsHandler(cfg.Service)
	authMW := mw.NewAuthMiddleware(cfg.JWTSecret)
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = mw.NewWriteLimiter(0, 0)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Use(limiter.Limit)
			pr.Post("/journal", journalHandler.Create)
			pr.Get("/journal", journalHandler.List)
			pr.Put("/journal/{id}", journalHandler.Update)
			pr.Delete("/journal/{id}", journalHandler.Delete)
			pr.Get("/stats", statsHandler.Get)
		})
	})
	return r
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler { return promhttp.Handler() }
