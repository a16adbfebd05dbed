package di

import (
	"net/http"
	"time"

	"cybermeme-backend/internal/config"
	"cybermeme-backend/internal/handlers"
	"cybermeme-backend/internal/infrastructure/observability"
	"cybermeme-backend/internal/interfaces/websocket"
	"cybermeme-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// provideRouter provides the HTTP router with all handlers.
func provideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	marketHandler *handlers.MarketHandler,
	wsServer *websocket.Server,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - applied to all routes
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Recovery(logger))
	if metrics != nil {
		r.Use(observability.HTTPMetrics(metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", marketHandler.Root)
	r.Get("/health", marketHandler.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// Realtime subscribers; the upgrade must not be wrapped by a timeout.
	r.Get("/ws", wsServer.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(observability.Tracing(cfg.Tracing.ServiceName))

		r.Get("/memes", marketHandler.ListMemes)
		r.Post("/memes", marketHandler.CreateMeme)
		r.Post("/memes/{id}/vote", marketHandler.CastVote)
		r.Post("/bids", marketHandler.PlaceBid)
		r.Get("/leaderboard", marketHandler.Leaderboard)
	})

	return r
}
