package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pairpad/internal/catalog"
)

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

// waitForRemaining polls until the countdown reports want seconds, giving the
// ticker goroutine real time to consume the fake tick.
func waitForRemaining(t *testing.T, c *Countdown, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := c.Remaining(); got == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	got, active := c.Remaining()
	t.Fatalf("countdown stuck at %d (active=%v), want %d", got, active, want)
}

// advanceSeconds steps the fake clock one second at a time so no tick is
// dropped while the goroutine is between selects.
func advanceSeconds(t *testing.T, clock *clockwork.FakeClock, c *Countdown, from, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		clock.Advance(time.Second)
		waitForRemaining(t, c, from-i)
	}
}

func TestCountdownDecrementsOncePerSecond(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)
	defer c.Stop()

	c.Start(300)
	if got, active := c.Remaining(); got != 300 || !active {
		t.Fatalf("expected 300 active, got %d (active=%v)", got, active)
	}

	advanceSeconds(t, clock, c, 300, 60)

	if got, active := c.Remaining(); got != 240 || !active {
		t.Errorf("expected 240 active after 60 seconds, got %d (active=%v)", got, active)
	}
}

func TestCountdownStopsAtZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)
	defer c.Stop()

	c.Start(3)
	advanceSeconds(t, clock, c, 3, 3)

	remaining, active := c.Remaining()
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}
	if active {
		t.Error("expected countdown inactive at zero")
	}

	// Further time must not push it negative or restart it.
	clock.Advance(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	remaining, active = c.Remaining()
	if remaining != 0 || active {
		t.Errorf("countdown moved after completion: %d (active=%v)", remaining, active)
	}
}

func TestCountdownRestartReplacesRunningTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)
	defer c.Stop()

	c.Start(100)
	advanceSeconds(t, clock, c, 100, 2)

	// A new start-timer replaces the countdown outright, no stacking.
	c.Start(30)
	if got, active := c.Remaining(); got != 30 || !active {
		t.Fatalf("expected restart at 30, got %d (active=%v)", got, active)
	}

	advanceSeconds(t, clock, c, 30, 5)
	if got, _ := c.Remaining(); got != 25 {
		t.Errorf("expected 25 after 5 seconds, got %d", got)
	}
}

func TestCountdownStartZeroStaysIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	c.Start(0)
	if remaining, active := c.Remaining(); remaining != 0 || active {
		t.Errorf("expected idle countdown, got %d (active=%v)", remaining, active)
	}

	c.Start(-5)
	if remaining, active := c.Remaining(); remaining != 0 || active {
		t.Errorf("expected idle countdown for negative start, got %d (active=%v)", remaining, active)
	}
}

func TestCountdownStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	c.Start(50)
	c.Stop()

	if remaining, active := c.Remaining(); remaining != 0 || active {
		t.Errorf("expected stopped countdown, got %d (active=%v)", remaining, active)
	}

	clock.Advance(5 * time.Second)
	time.Sleep(10 * time.Millisecond)
	if remaining, _ := c.Remaining(); remaining != 0 {
		t.Errorf("stopped countdown kept ticking: %d", remaining)
	}
}

func TestStoreApplyStartTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cat := mustCatalog(t)
	store := NewStore(cat, clock)
	defer store.Close()

	store.ApplyStartTimer(300)
	snap := store.Snapshot()
	if !snap.CountdownActive || snap.CountdownRemaining != 300 {
		t.Fatalf("expected active countdown at 300, got %+v", snap)
	}

	// Same payload twice yields the same state.
	store.ApplyStartTimer(300)
	snap = store.Snapshot()
	if !snap.CountdownActive || snap.CountdownRemaining != 300 {
		t.Errorf("expected countdown still at 300, got %+v", snap)
	}
}
