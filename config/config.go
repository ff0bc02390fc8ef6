// Package config loads the engine's tunable settings (max term depth,
// max zoo-construction tries, corpus output directory, log level, and
// per-step timeout) from environment variables, with an optional TOML
// file watched live for non-structural reload, following the teacher's
// core/types registry-construction style and ternarybob-iter's
// BurntSushi/toml-backed config loader.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/termzoo"
)

// Config holds the engine's runtime-tunable settings (spec.md's ambient
// stack: none of these values are specified by the term algebra itself,
// but every real run needs them).
type Config struct {
	MaxDepth        int           `toml:"max_depth"`
	MaxTries        int           `toml:"max_tries"`
	CorpusDir       string        `toml:"corpus_dir"`
	LogLevel        string        `toml:"log_level"`
	StepTimeout     time.Duration `toml:"-"`
	StepTimeoutSecs int           `toml:"step_timeout_seconds"`
}

// Default returns the engine's defaults: termzoo's MAX_TRIES/MAX_DEPTH
// constants (spec.md §4.H), a local corpus directory, info logging, and
// a 30s per-step timeout.
func Default() *Config {
	return &Config{
		MaxDepth:        termzoo.MaxDepth,
		MaxTries:        termzoo.MaxTries,
		CorpusDir:       "./corpus",
		LogLevel:        "info",
		StepTimeout:     30 * time.Second,
		StepTimeoutSecs: 30,
	}
}

// Environment variable names Load consults, overriding file/default
// values.
const (
	EnvMaxDepth    = "SYMTERM_MAX_DEPTH"
	EnvMaxTries    = "SYMTERM_MAX_TRIES"
	EnvCorpusDir   = "SYMTERM_CORPUS_DIR"
	EnvLogLevel    = "SYMTERM_LOG_LEVEL"
	EnvStepTimeout = "SYMTERM_STEP_TIMEOUT_SECONDS"
)

// Load builds a Config starting from Default, overlaying an optional
// TOML file at path (skipped if path is empty or the file does not
// exist), then overlaying environment variables, which always win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.StepTimeout = time.Duration(cfg.StepTimeoutSecs) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvMaxDepth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDepth = n
		}
	}
	if v := os.Getenv(EnvMaxTries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTries = n
		}
	}
	if v := os.Getenv(EnvCorpusDir); v != "" {
		cfg.CorpusDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvStepTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StepTimeoutSecs = n
		}
	}
}

// Validate rejects a Config with non-sensical bounds before it reaches
// the engine.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return ferr.Put("config: max_depth must be >= 1, got %d", c.MaxDepth)
	}
	if c.MaxTries < 1 {
		return ferr.Put("config: max_tries must be >= 1, got %d", c.MaxTries)
	}
	if c.StepTimeoutSecs < 1 {
		return ferr.Put("config: step_timeout_seconds must be >= 1, got %d", c.StepTimeoutSecs)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to Info on an
// unrecognized string.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Watcher live-reloads the non-structural fields (log level, step
// timeout) of a Config whenever the backing TOML file changes, grounded
// in the teacher pack's fsnotify-based hot-reload idiom
// (teradata-labs-loom/pkg/patterns.HotReloader).
type Watcher struct {
	mu      sync.RWMutex
	current *Config
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	log     *slog.Logger
}

// WatchFile starts watching path for changes, reloading the config on
// every write event. The returned Watcher's Current method is safe for
// concurrent reads from the engine's hot path.
func WatchFile(path string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating file watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}

	w := &Watcher{current: cfg, watcher: fw, stopCh: make(chan struct{}), log: log}
	go w.loop(path)
	return w, nil
}

func (w *Watcher) loop(path string) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				w.log.Warn("config: reload failed, keeping previous config", "error", err)
				continue
			}
			w.mu.Lock()
			next := *w.current
			next.LogLevel = cfg.LogLevel
			next.StepTimeout = cfg.StepTimeout
			next.StepTimeoutSecs = cfg.StepTimeoutSecs
			w.current = &next
			w.mu.Unlock()
			w.log.Info("config: reloaded", "path", path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config: watcher error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify.Watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.watcher.Close()
}
