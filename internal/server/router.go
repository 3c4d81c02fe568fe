package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// DefaultRoutePath matches the path the mobile clients already call.
const DefaultRoutePath = "/functions/v1/delete-user"

// RouterConfig describes the handlers mounted by NewRouter.
type RouterConfig struct {
	Logger    *slog.Logger
	RoutePath string
	Deletion  http.Handler
	Metrics   http.Handler
	RateLimit RateLimitConfig
}

// NewRouter mounts the deletion endpoint together with health and metrics routes.
// ctx bounds background work owned by the middleware.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path := cfg.RoutePath
	if path == "" {
		path = DefaultRoutePath
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(g chi.Router) {
		g.Use(cors.Handler(cors.Options{
			AllowedOrigins:     []string{"*"},
			AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders:     []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
			AllowCredentials:   false,
			MaxAge:             300,
			OptionsPassthrough: true,
		}))
		g.Use(RateLimiter(ctx, cfg.RateLimit))
		g.Method(http.MethodPost, path, cfg.Deletion)
		g.Method(http.MethodOptions, path, cfg.Deletion)
	})

	return r
}
