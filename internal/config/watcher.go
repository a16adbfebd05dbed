package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 300 * time.Millisecond

// ConfigWatcher reloads the configuration files when they change and hands
// the new configuration to registered callbacks. Only the settings that are
// safe to change at runtime are acted on by callers (the log level).
type ConfigWatcher struct {
	loader    *Loader
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once

	// Held while a reload applies and while Stop closes stopCh.
	reloadMu sync.Mutex
}

// NewConfigWatcher creates a watcher. Hot reloading is only enabled in
// development; elsewhere the watcher just holds the initial configuration.
func NewConfigWatcher(initial *Config, loader *Loader, logger *zap.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ConfigWatcher{
		loader: loader,
		config: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development || loader == nil {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so editors that replace files are still seen.
	if err := fsWatcher.Add(loader.BasePath()); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", loader.BasePath(), err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled",
		zap.String("dir", loader.BasePath()),
	)
	return w, nil
}

// Config returns the current configuration.
func (w *ConfigWatcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers a callback to be called when configuration changes.
func (w *ConfigWatcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop stops watching. Once it returns no callback runs again, even for a
// change whose debounce timer already fired.
func (w *ConfigWatcher) Stop() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *ConfigWatcher) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *ConfigWatcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}
			w.logger.Info("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info("Stopping configuration watcher")
			return
		}
	}
}

func (w *ConfigWatcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	if w.stopped() {
		return
	}
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping the previous one", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.config
	w.config = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if prev.Logging.Level != next.Logging.Level {
		w.logger.Info("Log level changed",
			zap.String("from", prev.Logging.Level),
			zap.String("to", next.Logging.Level),
		)
	}

	for _, fn := range callbacks {
		fn(next)
	}
}

func isConfigFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
