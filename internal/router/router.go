package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"govassist-backend/internal/handlers"
	"govassist-backend/internal/metrics"
	"govassist-backend/internal/middleware"
	"govassist-backend/internal/websocket"
)

// New builds the HTTP router. limiter and jwtAuth may be nil: without a
// limiter the assistant routes are unthrottled, and without jwtAuth the
// diagnostics route is public.
func New(
	chatHandler *handlers.ChatHandler,
	statusHandler *handlers.StatusHandler,
	chatSocket *websocket.ChatSocket,
	limiter middleware.Limiter,
	jwtAuth *middleware.JWTAuth,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", statusHandler.Health)
		r.Get("/lmstudio-status", statusHandler.LMStudioStatus)

		// ──── Assistant Routes ────
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/chat", chatHandler.Chat)
			r.Post("/analyze-image", chatHandler.AnalyzeImage)

			// ──── WebSocket ────
			r.Get("/ws/chat", chatSocket.HandleWebSocket)
		})

		// ──── Operator Routes ────
		r.Group(func(r chi.Router) {
			if jwtAuth != nil {
				r.Use(jwtAuth.Middleware)
			}
			r.Get("/lmstudio-diagnostics", statusHandler.Diagnostics)
		})
	})

	return r
}
