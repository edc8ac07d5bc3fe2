package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"coursechat/internal/api/handler"
	customMiddleware "coursechat/internal/api/middleware"
	"coursechat/internal/config"
	"coursechat/internal/service"
	"coursechat/internal/vectorstore"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, rag *service.RAGService, store *vectorstore.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	queryHandler := handler.NewQueryHandler(rag)
	courseHandler := handler.NewCourseHandler(rag)
	sessionHandler := handler.NewSessionHandler(rag)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(store))

		r.Post("/query", queryHandler.Query)
		r.Get("/courses", courseHandler.Stats)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/history", sessionHandler.History)
			r.Delete("/", sessionHandler.Clear)
		})
	})

	return r
}
