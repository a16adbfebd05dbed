package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	// basePath is the directory holding base.yaml and <environment>.yaml
	basePath string

	// environment is the current deployment environment
	environment Environment

	// getenv is swapped in tests
	getenv func(string) string
}

// NewLoader creates a loader reading files from basePath. An empty
// environment is taken from ENVIRONMENT, falling back to development.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	if env == "" {
		env = Environment(strings.ToLower(os.Getenv("ENVIRONMENT")))
	}
	if env == "" {
		env = Development
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		getenv:      os.Getenv,
	}
}

// BasePath returns the directory the loader reads from.
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load builds the configuration from every source and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := Default(l.environment)
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	for _, name := range []string{"base", string(l.environment)} {
		path, err := l.loadFile(name, cfg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s config: %w", name, err)
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	// The environment selected the files; a file cannot move it.
	cfg.Environment = l.environment

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays <name>.yaml (or .yml) onto cfg and returns the path used.
func (l *Loader) loadFile(name string, cfg *Config) (string, error) {
	for _, ext := range []string{"yaml", "yml"} {
		path := filepath.Join(l.basePath, name+"."+ext)
		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}
		defer file.Close()

		if err := decodeYAML(file, cfg); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return path, nil
	}
	return "", fs.ErrNotExist
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// loadEnvironmentVariables overlays environment variables on the configuration.
// This provides the highest priority configuration source.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	if val := l.getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", val, err)
		}
		cfg.Server.Port = port
	}
	if val := l.getenv("ALLOWED_ORIGIN"); val != "" {
		cfg.Server.AllowedOrigin = val
	}
	if val := l.getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}

	if val := l.getenv("STORE_PROVIDER"); val != "" {
		cfg.Store.Provider = strings.ToLower(val)
	}
	if val := l.getenv("SQLITE_PATH"); val != "" {
		cfg.Store.SQLitePath = val
	}
	if val := l.getenv("SUPABASE_URL"); val != "" {
		cfg.Store.SupabaseURL = val
	}
	if val := l.getenv("SUPABASE_KEY"); val != "" {
		cfg.Store.SupabaseKey = val
	}

	if val := l.getenv("GEMINI_API_KEY"); val != "" {
		cfg.Caption.APIKey = val
	}
	if val := l.getenv("GEMINI_MODEL"); val != "" {
		cfg.Caption.Model = val
	}

	if val := l.getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	return nil
}
