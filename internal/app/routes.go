package app

import (
	"net/http"

	"github.com/Raimguhinov/alarm-go/internal/config"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func SetupRouter(l *logger.Logger, alarms *usecase.Alarms, center *notify.Center, cfg *config.Config) http.Handler {
	s := chi.NewRouter()
	s.Use(middleware.Logger)
	s.Use(middleware.Recoverer)
	s.Use(corsMiddleware(cfg))

	h := &alarmRoutes{alarms: alarms, center: center, l: l}

	s.Route("/alarms", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/reorder", h.reorder)
		r.Get("/export.ics", h.exportICS)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.remove)
			r.Post("/toggle", h.toggle)
			r.Post("/dismiss", h.dismiss)
		})
	})

	s.Route("/triggers", func(r chi.Router) {
		r.Get("/pending", h.pending)
		r.Get("/delivered", h.delivered)
	})

	s.Post("/system/timezone", h.timezoneChanged)

	return s
}

func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedMethods:   cfg.HTTP.CORS.AllowedMethods,
		AllowedOrigins:   cfg.HTTP.CORS.AllowedOrigins,
		AllowCredentials: cfg.HTTP.CORS.AllowCredentials,
		AllowedHeaders:   cfg.HTTP.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.HTTP.CORS.ExposedHeaders,
		Debug:            cfg.HTTP.CORS.Debug,
	}).Handler
}
