package auth

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	loginRate            = rate.Limit(5.0 / 60.0)
	loginBurst           = 5
	throttleIdleTTL      = 10 * time.Minute
	throttleCleanupEvery = 5 * time.Minute
)

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginThrottle is a per-IP token bucket guarding the login endpoint.
type loginThrottle struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	entries   map[string]*throttleEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

func newLoginThrottle(clock clockwork.Clock, r rate.Limit, burst int) *loginThrottle {
	return &loginThrottle{
		clock:     clock,
		entries:   make(map[string]*throttleEntry),
		rate:      r,
		burst:     burst,
		cleanupAt: clock.Now().Add(throttleCleanupEvery),
	}
}

// allow consumes a token for ip and reports whether one was available.
func (t *loginThrottle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if now.After(t.cleanupAt) {
		cutoff := now.Add(-throttleIdleTTL)
		for k, e := range t.entries {
			if e.lastSeen.Before(cutoff) {
				delete(t.entries, k)
			}
		}
		t.cleanupAt = now.Add(throttleCleanupEvery)
	}

	e, ok := t.entries[ip]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
