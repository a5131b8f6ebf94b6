// Package timeouts holds the deadlines applied to outbound calls.
//
// Operations wrap each Mongo or directory call in context.WithTimeout using
// one of these values so a slow backend never holds a request open forever.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries over the users collection
//   - Directory: LDAP searches, including one reconnect-and-retry
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing      = 2 * time.Second
	DefaultShort     = 5 * time.Second
	DefaultMedium    = 10 * time.Second
	DefaultDirectory = 15 * time.Second
)

var mu sync.RWMutex

var (
	ping      = DefaultPing
	short     = DefaultShort
	medium    = DefaultMedium
	directory = DefaultDirectory
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document store operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list queries.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Directory returns the timeout for a directory search. It covers the retry
// after a reconnect, so it is longer than Short.
func Directory() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return directory
}

// Config holds timeout overrides. Zero values keep the current setting.
type Config struct {
	Ping      time.Duration
	Short     time.Duration
	Medium    time.Duration
	Directory time.Duration
}

// Configure applies cfg. Call it from startup before serving.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Directory > 0 {
		directory = cfg.Directory
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	directory = DefaultDirectory
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:      ping,
		Short:     short,
		Medium:    medium,
		Directory: directory,
	}
}

// WithTimeout derives a context with the given timeout. The returned cancel
// logs a warning when the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Directory(), s.log, "batch search")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
