package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"locline/internal/api/handlers"
	"locline/internal/api/middleware"
	"locline/internal/config"
	"locline/internal/events"
	"locline/internal/ports"
	"locline/internal/usecase/runner"
)

// NewRouter wires the control surface an external UI consumes: start/stop,
// status, model listing and a server-sent progress feed.
func NewRouter(rn *runner.Runner, build ports.ProviderBuilder, bus *events.Bus,
	runs ports.RunRepository, cfg *config.Config, log *slog.Logger) *chi.Mux {

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	runHandler := handlers.NewRunHandler(rn, runs, cfg.Run)
	modelsHandler := handlers.NewModelsHandler(build, cfg.Run.BaseURL, cfg.Run.APIKey)
	eventsHandler := handlers.NewEventsHandler(bus)

	r.Route("/api", func(r chi.Router) {
		r.Post("/run/start", runHandler.Start)
		r.Post("/run/stop", runHandler.Stop)
		r.Get("/run/status", runHandler.Status)
		r.Get("/runs", runHandler.List)
		r.Get("/models", modelsHandler.List)
		r.Get("/events", eventsHandler.Stream)
	})

	return r
}
