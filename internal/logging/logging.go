// ABOUTME: Global structured logger setup, one zerolog.Logger configured at startup
// ABOUTME: Every package logs through Get() rather than holding its own writer
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger. Level defaults to "info".
type Config struct {
	Level   string
	Output  io.Writer
	Service string
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Configure replaces the global logger. Call once at process startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	logger := zerolog.New(writer).With().Timestamp()
	if cfg.Service != "" {
		logger = logger.Str("service", cfg.Service)
	}
	base = logger.Logger()
}

// Get returns the current global logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}
