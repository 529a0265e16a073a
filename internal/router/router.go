package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/bar/internal/config"
	"github.com/kiwari-pos/bar/internal/handler"
	mw "github.com/kiwari-pos/bar/internal/middleware"
	"github.com/kiwari-pos/bar/internal/service"
	"github.com/kiwari-pos/bar/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, registry *service.Registry, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Menu
	catalogHandler := handler.NewCatalogHandler(registry.Catalog())
	catalogHandler.RegisterRoutes(r)

	loc := cfg.Location()
	reportsHandler := handler.NewReportsHandler(registry.Store(), loc)

	// Store-wide reports (every terminal's sales)
	r.Route("/reports", reportsHandler.RegisterRoutes)

	// Live dashboard feeds
	r.Get("/ws/sales", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, ws.AllSessions, w, r)
	})

	// Order entry
	sessionHandler := handler.NewSessionHandler(registry, hub, loc)
	r.Route("/sessions", func(r chi.Router) {
		sessionHandler.RegisterRoutes(r)

		r.Route("/{sid}", func(r chi.Router) {
			r.Use(mw.RequireSession(registry))

			sessionHandler.RegisterSessionRoutes(r)
			r.Route("/reports", reportsHandler.RegisterRoutes)
			r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
				s := mw.SessionFromContext(r.Context())
				ws.ServeWS(hub, s.ID(), w, r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
