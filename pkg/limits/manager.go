package limits

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"grundbuch-online/portal/pkg/config"
)

// Manager keeps one token bucket per client key.
type Manager struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager from the rate limit configuration.
func NewManager(cfg config.RateLimitConfig, opts ...Option) *Manager {
	m := &Manager{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:   cfg.Burst,
		idle:    cfg.IdleTTL,
		now:     time.Now,
	}
	if m.burst < 1 {
		m.burst = 1
	}
	if m.idle <= 0 {
		m.idle = config.DefaultRateLimitIdle
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

// Check takes one token from key's bucket.
func (m *Manager) Check(key string) CheckResult {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= m.idle {
		m.sweepLocked(now)
	}

	c, ok := m.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[key] = c
	}
	c.seen = now

	result := CheckResult{Limit: m.burst}
	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		result.RetryAfter = delay
	} else {
		result.Allowed = true
	}

	tokens := c.limiter.TokensAt(now)
	result.Remaining = int(math.Max(0, math.Floor(tokens)))
	result.Reset = now.Add(m.refill(float64(m.burst) - tokens))
	return result
}

// Clients returns the number of tracked clients.
func (m *Manager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Manager) refill(missing float64) time.Duration {
	if missing <= 0 || m.limit <= 0 {
		return 0
	}
	return time.Duration(missing / float64(m.limit) * float64(time.Second))
}

func (m *Manager) sweepLocked(now time.Time) {
	for key, c := range m.clients {
		if now.Sub(c.seen) >= m.idle {
			delete(m.clients, key)
		}
	}
	m.lastSweep = now
}
