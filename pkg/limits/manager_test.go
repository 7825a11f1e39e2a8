package limits

import (
	"sync"
	"testing"
	"time"

	"grundbuch-online/portal/pkg/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(rpm, burst int) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: rpm,
		Burst:             burst,
		IdleTTL:           10 * time.Minute,
	}, WithClock(clock.Now))
	return m, clock
}

func TestManager_BurstThenReject(t *testing.T) {
	m, _ := newTestManager(60, 3)

	for i := 0; i < 3; i++ {
		res := m.Check("198.51.100.7")
		if !res.Allowed {
			t.Fatalf("request %d rejected", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res := m.Check("198.51.100.7")
	if res.Allowed {
		t.Fatal("fourth request allowed")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want (0, 1s]", res.RetryAfter)
	}
	if res.Limit != 3 {
		t.Errorf("Limit = %d, want 3", res.Limit)
	}
}

func TestManager_Refill(t *testing.T) {
	m, clock := newTestManager(60, 1)

	if !m.Check("a").Allowed {
		t.Fatal("first request rejected")
	}
	if m.Check("a").Allowed {
		t.Fatal("second request allowed without refill")
	}

	clock.Advance(time.Second)
	if !m.Check("a").Allowed {
		t.Error("request after refill rejected")
	}
}

func TestManager_ClientsIndependent(t *testing.T) {
	m, _ := newTestManager(60, 1)

	if !m.Check("a").Allowed {
		t.Fatal("a rejected")
	}
	if !m.Check("b").Allowed {
		t.Error("b rejected because of a")
	}
}

func TestManager_RejectedRequestsDoNotConsume(t *testing.T) {
	m, clock := newTestManager(60, 1)

	m.Check("a")
	for i := 0; i < 5; i++ {
		m.Check("a")
	}

	clock.Advance(time.Second)
	if !m.Check("a").Allowed {
		t.Error("rejected requests pushed the next token further out")
	}
}

func TestManager_EvictsIdleClients(t *testing.T) {
	m, clock := newTestManager(60, 1)

	m.Check("a")
	m.Check("b")
	if got := m.Clients(); got != 2 {
		t.Fatalf("Clients() = %d, want 2", got)
	}

	clock.Advance(11 * time.Minute)
	m.Check("c")
	if got := m.Clients(); got != 1 {
		t.Errorf("Clients() after idle = %d, want 1", got)
	}
}
