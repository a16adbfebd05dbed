package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests into hub subscriptions.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   *ServerConfig
	logger   *zap.Logger
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// Browser origins allowed to subscribe. "*" allows any origin. Requests
	// without an Origin header are not browsers and are always accepted.
	AllowedOrigins []string
	PingInterval   time.Duration
	PongWait       time.Duration
	MaxConnections int
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		AllowedOrigins:  []string{"*"},
		PingInterval:    defaultPingPeriod,
		PongWait:        defaultPongWait,
		MaxConnections:  10000,
	}
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		config: config,
		logger: logger,
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxConnections > 0 && s.hub.ClientCount() >= s.config.MaxConnections {
		s.logger.Warn("Connection limit exceeded",
			zap.Int("currentConnections", s.hub.ClientCount()),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		http.Error(w, "Connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	// Upgrade writes its own error response
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
			zap.String("origin", r.Header.Get("Origin")),
		)
		return
	}

	client := NewClient(s.hub, conn, s.config.PingInterval, s.config.PongWait, s.logger)
	client.Start()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || sameOrigin(a, origin) {
				return true
			}
		}
		return false
	}
}

func sameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}
