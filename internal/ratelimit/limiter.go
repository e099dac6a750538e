// Package ratelimit implements the fixed-window limiter guarding the upload endpoint.
//
// Each identity owns one window record {Count, ResetAt}. The first request, or the
// first request after ResetAt has passed, starts a new window with Count = 1; later
// requests increment Count and are limited once it exceeds MaxRequests. Fixed
// windows allow up to 2*MaxRequests requests inside any rolling Window when bursts
// straddle a boundary.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/farzalfian/bumdes/internal/metrics"
)

const (
	// DefaultMaxRequests is the request budget per identity per window.
	DefaultMaxRequests = 50
	// DefaultWindow is the length of one fixed window.
	DefaultWindow = 60 * time.Second
	// DefaultSweepInterval is how often RunSweeper removes expired windows.
	DefaultSweepInterval = 5 * time.Minute
)

// Config bounds requests per identity per window.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultConfig returns 50 requests per minute.
func DefaultConfig() Config {
	return Config{MaxRequests: DefaultMaxRequests, Window: DefaultWindow}
}

func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Record is the window state of a single identity.
type Record struct {
	Count   int
	ResetAt time.Time
}

// Store owns the window records. Hit must apply the reset-or-increment
// transition atomically and return the updated record.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Record, error)
	// Sweep removes records whose window has ended and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// Limiter decides whether an identity has exceeded its request budget.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a Limiter. Zero config fields fall back to the defaults.
func New(store Store, cfg Config) *Limiter {
	return &Limiter{store: store, cfg: cfg.withDefaults()}
}

// Config returns the limiter's effective configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// IsRateLimited records a request for identifier and reports whether it must be rejected.
func (l *Limiter) IsRateLimited(ctx context.Context, identifier string) (bool, error) {
	return l.IsRateLimitedWith(ctx, identifier, l.cfg)
}

// IsRateLimitedWith is IsRateLimited with an explicit configuration.
func (l *Limiter) IsRateLimitedWith(ctx context.Context, identifier string, cfg Config) (bool, error) {
	cfg = cfg.withDefaults()

	rec, err := l.store.Hit(ctx, identifier, cfg.Window)
	if err != nil {
		return false, fmt.Errorf("record hit for %q: %w", identifier, err)
	}

	if rec.Count > cfg.MaxRequests {
		metrics.RateLimitRejections.Inc()
		return true, nil
	}
	return false, nil
}

// AdminIdentifier builds the rate-limit key for an authenticated admin.
func AdminIdentifier(adminID string) string {
	return "admin_" + adminID
}
