package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"spiritus-backend/internal/handlers"
	"spiritus-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
	chatLimiter *middleware.RateLimiter,
	corsOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.PeerAddr)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(corsOrigin))

	// Health check
	r.Get("/health", healthHandler.Health)

	// ──── Chat relay ────
	// Every method is routed to the handler so it can answer 405 itself.
	r.Route("/api", func(r chi.Router) {
		r.Use(chatLimiter.Middleware)
		r.HandleFunc("/chat", chatHandler.Relay)
	})

	return r
}
