// Package timeouts holds the deadlines used for calls made outside the
// request's own lifetime: health pings, background store writes, and
// requests to external services.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 5 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultExternal = 10 * time.Second
)

var (
	mu       sync.RWMutex
	ping     = DefaultPing
	short    = DefaultShort
	external = DefaultExternal
)

// Ping bounds health-check round trips to MongoDB and Redis.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short bounds single-document reads and writes.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// External bounds calls to third-party HTTP APIs such as Google userinfo.
func External() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return external
}

// Config holds timeout overrides. Zero fields keep the current value.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	External time.Duration
}

// Configure applies cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.External > 0 {
		external = cfg.External
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, external = DefaultPing, DefaultShort, DefaultExternal
}

// Current returns the values in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, External: external}
}

// WithTimeout is context.WithTimeout that logs when the deadline, rather
// than the parent, ended the operation.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded && parent.Err() == nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
