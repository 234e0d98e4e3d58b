package serverhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quotecraft/internal/compare/handler"
	"quotecraft/internal/config"
	"quotecraft/internal/middleware"
	"quotecraft/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, api *handler.Handler) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> otel -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.OTel(cfg.ServiceName))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health(time.Now()))
	r.Route("/api", api.Routes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Route not found"}}`))
	})
	return r
}
