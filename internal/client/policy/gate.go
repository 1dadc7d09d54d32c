// internal/client/policy/gate.go

package policy

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate admits at most one call per spacing interval. Calls arriving too early
// are refused, not queued.
type Gate struct {
	limiter *rate.Limiter
	now     func() time.Time
	mu      sync.Mutex
}

// NewGate creates a gate with the given minimum spacing. now may be nil.
func NewGate(spacing time.Duration, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		now:     now,
	}
}

// Allow reports whether a call may proceed now and records it when it may
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limiter.AllowN(g.now(), 1)
}
