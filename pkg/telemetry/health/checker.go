package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CheckFunc reports whether one dependency (a store, the outbox) is usable.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Status is the aggregated health of the process.
type Status struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs registered readiness checks concurrently, each under its own
// timeout.
type Checker struct {
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a checker. A zero timeout means 5s per check.
func New(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{timeout: timeout, checks: make(map[string]CheckFunc)}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Liveness always reports ok while the process runs.
func (c *Checker) Liveness() Status {
	return Status{Status: "ok", Timestamp: time.Now()}
}

// Readiness runs every check. The result is "ready" when all pass and
// "degraded" otherwise.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for n, fn := range c.checks {
		checks[n] = fn
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, fn := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.run(ctx, fn)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := "ready"
	for _, r := range results {
		if r.Status != "ok" {
			status = "degraded"
		}
	}
	return Status{Status: status, Checks: results, Timestamp: time.Now()}
}

func (c *Checker) run(ctx context.Context, fn CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	res := CheckResult{Status: "ok", DurationMS: float64(time.Since(start).Microseconds()) / 1000}
	if err != nil {
		res.Status = "unhealthy"
		res.Message = err.Error()
	}
	return res
}
