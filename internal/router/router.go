package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"tracc-api/internal/handler"
	"tracc-api/internal/middleware"
	"tracc-api/pkg/apierror"
	"tracc-api/pkg/response"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	SiloHandler     *handler.SiloHandler
	InboundHandler  *handler.InboundHandler
	OutboundHandler *handler.OutboundHandler
	ReportHandler   *handler.ReportHandler
	AdminHandler    *handler.AdminHandler
	AllowedOrigins  []string
	Logger          *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, &apierror.Error{
			StatusCode: http.StatusMethodNotAllowed,
			Code:       "METHOD_NOT_ALLOWED",
			Message:    "method not allowed",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.SiloHandler != nil {
			r.Route("/silos", func(r chi.Router) {
				r.Get("/", cfg.SiloHandler.List)
				r.Post("/", cfg.SiloHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.SiloHandler.Get)
					r.Put("/", cfg.SiloHandler.Update)
					r.Delete("/", cfg.SiloHandler.Delete)
					r.Get("/fifo", cfg.SiloHandler.FIFOPreview)
				})
			})
		}

		if cfg.InboundHandler != nil {
			r.Route("/inbound", func(r chi.Router) {
				r.Get("/", cfg.InboundHandler.List)
				r.Post("/", cfg.InboundHandler.Create)
				r.Put("/{id}", cfg.InboundHandler.Update)
				r.Delete("/{id}", cfg.InboundHandler.Delete)
			})
		}

		if cfg.OutboundHandler != nil {
			r.Route("/outbound", func(r chi.Router) {
				r.Get("/", cfg.OutboundHandler.List)
				r.Post("/", cfg.OutboundHandler.Create)
				r.Post("/batch", cfg.OutboundHandler.Batch)
				r.Put("/{id}", cfg.OutboundHandler.Update)
				r.Delete("/{id}", cfg.OutboundHandler.Delete)
			})
		}

		if cfg.ReportHandler != nil {
			r.Route("/reports", func(r chi.Router) {
				r.Get("/", cfg.ReportHandler.List)
				r.Get("/stock", cfg.ReportHandler.Stock)
				r.Post("/run", cfg.ReportHandler.Run)
			})
		}

		if cfg.AdminHandler != nil {
			r.Get("/admin/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}
