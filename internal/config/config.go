// Package config provides layered configuration for the meme market backend.
//
// Sources, lowest priority first: defaults in code, config/base.yaml,
// config/<environment>.yaml, then environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Store providers.
const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

// DefaultAllowedOrigin is the single browser origin allowed by default.
const DefaultAllowedOrigin = "https://citymall-meme-assignment-f2xl7hq3a.vercel.app"

// Config is the complete application configuration.
type Config struct {
	Environment Environment `yaml:"environment"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
	Store       Store       `yaml:"store"`
	Caption     Caption     `yaml:"caption"`
	Realtime    Realtime    `yaml:"realtime"`
	Metrics     Metrics     `yaml:"metrics"`
	Tracing     Tracing     `yaml:"tracing"`

	// LoadedFrom lists the sources applied, in order.
	LoadedFrom []string `yaml:"-"`
}

// Server configures the HTTP listener.
type Server struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Logging configures zap.
type Logging struct {
	Level string `yaml:"level"`
}

// Store selects and configures the record store.
type Store struct {
	Provider       string         `yaml:"provider"`
	SQLitePath     string         `yaml:"sqlite_path"`
	SupabaseURL    string         `yaml:"supabase_url"`
	SupabaseKey    string         `yaml:"supabase_key"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker"`
}

// CircuitBreaker configures the breaker around store calls.
type CircuitBreaker struct {
	Enabled      bool          `yaml:"enabled"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
	Interval     time.Duration `yaml:"interval"`
	OpenTimeout  time.Duration `yaml:"open_timeout"`
}

// Caption configures the caption generator.
type Caption struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Realtime configures the websocket hub.
type Realtime struct {
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongWait       time.Duration `yaml:"pong_wait"`
	MaxConnections int           `yaml:"max_connections"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Tracing configures OpenTelemetry export. An empty endpoint disables it.
type Tracing struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns a configuration that runs locally with no files and no
// credentials.
func Default(env Environment) *Config {
	if env == "" {
		env = Development
	}
	return &Config{
		Environment: env,
		Server: Server{
			Port:            5000,
			Host:            "0.0.0.0",
			AllowedOrigin:   DefaultAllowedOrigin,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{
			Level: "info",
		},
		Store: Store{
			Provider:   StoreSQLite,
			SQLitePath: "cybermeme.db",
			CircuitBreaker: CircuitBreaker{
				Enabled:      true,
				MinRequests:  5,
				FailureRatio: 0.6,
				Interval:     60 * time.Second,
				OpenTimeout:  30 * time.Second,
			},
		},
		Caption: Caption{
			Model:   "gemini-1.5-flash",
			Timeout: 15 * time.Second,
		},
		Realtime: Realtime{
			PingInterval:   25 * time.Second,
			PongWait:       60 * time.Second,
			MaxConnections: 10000,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "cybermeme",
		},
		Tracing: Tracing{
			ServiceName: "cybermeme-backend",
		},
	}
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment reports whether the config targets local development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development || c.Environment == Test
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production, Test:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.AllowedOrigin == "" {
		errs = append(errs, errors.New("server.allowed_origin is required"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}

	switch strings.ToLower(c.Store.Provider) {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite provider"))
		}
	case StoreSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.provider %q", c.Store.Provider))
	}

	if c.Realtime.PongWait <= 0 || c.Realtime.PingInterval <= 0 {
		errs = append(errs, errors.New("realtime ping_interval and pong_wait must be positive"))
	} else if c.Realtime.PingInterval >= c.Realtime.PongWait {
		errs = append(errs, errors.New("realtime.ping_interval must be shorter than realtime.pong_wait"))
	}

	if c.Caption.Timeout <= 0 {
		errs = append(errs, errors.New("caption.timeout must be positive"))
	}

	return errors.Join(errs...)
}
