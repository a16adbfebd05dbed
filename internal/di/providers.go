package di

import (
	"context"
	"fmt"

	"cybermeme-backend/internal/config"
	"cybermeme-backend/internal/infrastructure/observability"
	"cybermeme-backend/internal/interfaces/websocket"
	"cybermeme-backend/internal/repository"
	"cybermeme-backend/internal/repository/sqlite"
	"cybermeme-backend/internal/repository/supabase"
	"cybermeme-backend/internal/service/caption"
	"cybermeme-backend/internal/service/market"
	"cybermeme-backend/internal/users"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// provideAtomicLevel parses the configured level into a level that can be
// changed while the process runs.
func provideAtomicLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// provideLogger builds a JSON logger in production and a console logger elsewhere.
func provideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build(zap.Fields(zap.String("environment", string(cfg.Environment))))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// provideMetrics returns nil when metrics are disabled.
func provideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// provideStore opens the configured record store and decorates it with the
// circuit breaker and instrumentation.
func provideStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (repository.Store, func(), error) {
	var (
		store   repository.Store
		cleanup = func() {}
	)

	switch cfg.Store.Provider {
	case config.StoreSupabase:
		s, err := supabase.NewStore(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		store = s
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}

	logger.Info("Record store ready", zap.String("provider", cfg.Store.Provider))

	if cb := cfg.Store.CircuitBreaker; cb.Enabled {
		breakerCfg := repository.DefaultCircuitBreakerConfig(cfg.Store.Provider + "-store")
		breakerCfg.MinRequests = cb.MinRequests
		breakerCfg.FailureThreshold = cb.FailureRatio
		breakerCfg.Interval = cb.Interval
		breakerCfg.Timeout = cb.OpenTimeout
		store = repository.WithCircuitBreaker(store, breakerCfg, logger)
	}

	return observability.InstrumentStore(store, metrics), cleanup, nil
}

func provideDirectory() users.Directory {
	return users.NewStaticDirectory(users.DefaultUsers())
}

// provideCaptionGenerator uses Gemini when an API key is configured. Without
// one every meme gets the fallback caption.
func provideCaptionGenerator(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*caption.Generator, func(), error) {
	opts := []caption.Option{
		caption.WithTimeout(cfg.Caption.Timeout),
		caption.WithCircuitBreaker("caption-provider", 5, cfg.Caption.Timeout*2),
	}
	if metrics != nil {
		opts = append(opts, caption.WithFallbackHook(func(error) {
			metrics.CaptionFallbacks.Inc()
		}))
	}

	if cfg.Caption.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, captions will use the fallback")
		return caption.NewGenerator(nil, logger, opts...), func() {}, nil
	}

	provider, err := caption.NewGeminiProvider(context.Background(), cfg.Caption.APIKey, cfg.Caption.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	cleanup := func() {
		if err := provider.Close(); err != nil {
			logger.Warn("Failed to close gemini client", zap.Error(err))
		}
	}
	return caption.NewGenerator(provider, logger, opts...), cleanup, nil
}

// provideHub starts the hub; the cleanup stops it and waits for its loop to exit.
func provideHub(logger *zap.Logger, metrics *observability.Collector) (*websocket.Hub, func()) {
	hub := websocket.NewHub(logger, metrics)
	go hub.Run()
	return hub, func() {
		hub.Stop()
		<-hub.Done()
	}
}

func provideWebSocketServer(cfg *config.Config, hub *websocket.Hub, logger *zap.Logger) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = []string{cfg.Server.AllowedOrigin}
	wsCfg.PingInterval = cfg.Realtime.PingInterval
	wsCfg.PongWait = cfg.Realtime.PongWait
	wsCfg.MaxConnections = cfg.Realtime.MaxConnections
	return websocket.NewServer(hub, wsCfg, logger)
}

func provideContainer(
	cfg *config.Config,
	logger *zap.Logger,
	level zap.AtomicLevel,
	hub *websocket.Hub,
	service *market.Service,
	metrics *observability.Collector,
	router *chi.Mux,
) *Container {
	return &Container{
		Config:   cfg,
		Logger:   logger,
		LogLevel: level,
		Hub:      hub,
		Market:   service,
		Metrics:  metrics,
		Router:   router,
	}
}
