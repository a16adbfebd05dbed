package di

import (
	"net/http"

	"cybermeme-backend/internal/config"
	"cybermeme-backend/internal/infrastructure/observability"
	"cybermeme-backend/internal/interfaces/websocket"
	"cybermeme-backend/internal/service/market"

	"go.uber.org/zap"
)

// Container holds the wired application.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	LogLevel zap.AtomicLevel
	Hub      *websocket.Hub
	Market   *market.Service
	Metrics  *observability.Collector // nil when metrics are disabled
	Router   http.Handler
}

// ApplyConfig applies the settings that may change at runtime. Today that is
// only the log level.
func (c *Container) ApplyConfig(cfg *config.Config) {
	if err := c.LogLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		c.Logger.Warn("Ignoring invalid log level", zap.String("level", cfg.Logging.Level))
		return
	}
	c.Logger.Info("Log level applied", zap.String("level", cfg.Logging.Level))
}
