// Package ratelimit implements the job-start limiter shared by all worker
// slots. It bounds throughput toward the scraping target; the worker pool
// size separately bounds simultaneous work.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/serpwatch/serpwatch/internal/telemetry"
)

// Config holds the limiter knobs: at most MaxStarts job starts per rolling
// Window. Jobs beyond the cap wait rather than being rejected.
type Config struct {
	MaxStarts int
	Window    time.Duration
}

// Limiter gates job starts across the whole worker pool.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter. A non-positive MaxStarts or Window disables
// limiting entirely.
func New(cfg Config) *Limiter {
	if cfg.MaxStarts <= 0 || cfg.Window <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	// Refill at MaxStarts per Window with a full-window burst, which
	// approximates a sliding window without tracking individual starts.
	limit := rate.Limit(float64(cfg.MaxStarts) / cfg.Window.Seconds())
	return &Limiter{limiter: rate.NewLimiter(limit, cfg.MaxStarts)}
}

// Wait blocks until the next job may start, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		telemetry.ObserveRateLimitDelay(waited)
	}
	return nil
}
