package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cybermeme-backend/internal/config"
	"cybermeme-backend/internal/di"
	"cybermeme-backend/internal/infrastructure/tracing"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet("cybermeme-api", pflag.ContinueOnError)
	configDir := flags.String("config-dir", "config", "directory holding base.yaml and <env>.yaml")
	env := flags.String("env", "", "environment (development, test, staging, production); defaults to $ENVIRONMENT")
	port := flags.Int("port", 0, "listen port; overrides config and $PORT")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid flags: %v", err)
	}

	if err := run(*configDir, config.Environment(*env), *port); err != nil {
		log.Fatalf("cybermeme-api: %v", err)
	}
}

func run(configDir string, env config.Environment, port int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	loader := config.NewLoader(configDir, env)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	tp, err := tracing.InitTracing(ctx, cfg.Tracing.ServiceName, string(cfg.Environment), cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Initialize dependency container
	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	logger := container.Logger

	watcher, err := config.NewConfigWatcher(cfg, loader, logger)
	if err != nil {
		logger.Warn("Configuration watcher unavailable", zap.Error(err))
	} else {
		watcher.OnChange(container.ApplyConfig)
		defer watcher.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Cybermeme Market server starting",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.Strings("config_sources", cfg.LoadedFrom),
			zap.Bool("tracing", tp.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			runErr = err
		}
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	traceCtx, traceCancel := context.WithTimeout(ctx, 5*time.Second)
	defer traceCancel()
	if err := tp.Shutdown(traceCtx); err != nil {
		logger.Warn("Tracer shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
	// Stops the hub and closes the store; the logger is synced last.
	cleanup()
	return runErr
}
