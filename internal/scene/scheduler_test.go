package scene_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cityviz/internal/scene"
)

const cycle = 100 * time.Millisecond

// waitNotInFlight polls until the background refresh has finished.
func waitNotInFlight(t *testing.T, cs *scene.CycleScheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for cs.RefreshInFlight() {
		if time.Now().After(deadline) {
			t.Fatal("refresh never finished")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestRefreshFiresOncePerCycle verifies the midpoint trigger fires exactly
// once per cycle no matter how many frames land past the midpoint.
func TestRefreshFiresOncePerCycle(t *testing.T) {
	var calls int32
	cs := scene.NewCycleScheduler(context.Background(), cycle, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	cs.Advance(60 * time.Millisecond) // past the midpoint: fires
	waitNotInFlight(t, cs)

	cs.Advance(10 * time.Millisecond) // still this cycle: must not fire again
	cs.Advance(10 * time.Millisecond)
	waitNotInFlight(t, cs)

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("refresh calls within one cycle: got %d, want 1", n)
	}

	cs.Advance(30 * time.Millisecond) // crosses the cycle end: reset
	cs.Advance(60 * time.Millisecond) // next cycle's midpoint: fires again
	waitNotInFlight(t, cs)

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("refresh calls across two cycles: got %d, want 2", n)
	}
}

// TestCycleHoldsWhileRefreshOutstanding verifies elapsed pins at the cycle
// duration while a slow refresh is in flight, and resets only after it lands.
func TestCycleHoldsWhileRefreshOutstanding(t *testing.T) {
	release := make(chan struct{})
	cs := scene.NewCycleScheduler(context.Background(), cycle, func(ctx context.Context) error {
		<-release
		return nil
	})

	cs.Advance(60 * time.Millisecond) // fires the refresh; it blocks
	cs.Advance(60 * time.Millisecond) // crosses the end while in flight

	if got := cs.Elapsed(); got != cycle {
		t.Errorf("elapsed during hold: got %v, want %v (pinned)", got, cycle)
	}
	if got := cs.Progress(); got != 1 {
		t.Errorf("progress during hold: got %f, want 1", got)
	}
	if cs.State() != scene.CycleRefreshing {
		t.Errorf("state during hold: got %v, want refreshing", cs.State())
	}

	// Further frames keep it pinned, not growing.
	cs.Advance(50 * time.Millisecond)
	if got := cs.Elapsed(); got != cycle {
		t.Errorf("elapsed still holding: got %v, want %v", got, cycle)
	}

	close(release)
	waitNotInFlight(t, cs)

	cs.Advance(10 * time.Millisecond) // first frame after landing: reset
	if got := cs.Elapsed(); got >= cycle {
		t.Errorf("elapsed after landing: got %v, want a fresh cycle", got)
	}
	if cs.State() != scene.CycleRunning {
		t.Errorf("state after landing: got %v, want running", cs.State())
	}
}

// TestFailedRefreshCountedAndRetriedNextCycle verifies a failed refresh is
// counted, leaves the cycle machinery intact, and the next cycle retries.
func TestFailedRefreshCountedAndRetriedNextCycle(t *testing.T) {
	var calls int32
	cs := scene.NewCycleScheduler(context.Background(), cycle, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("poll failed")
	})

	cs.Advance(60 * time.Millisecond)
	waitNotInFlight(t, cs)
	cs.Advance(50 * time.Millisecond) // reset
	cs.Advance(60 * time.Millisecond) // next midpoint
	waitNotInFlight(t, cs)

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("refresh attempts: got %d, want 2", n)
	}

	stats := cs.GetStats()
	if stats["refreshes"] != 2 || stats["failures"] != 2 {
		t.Errorf("stats: got %d refreshes / %d failures, want 2/2",
			stats["refreshes"], stats["failures"])
	}
}

// TestNoRefreshBeforeMidpoint verifies nothing fires in the front half.
func TestNoRefreshBeforeMidpoint(t *testing.T) {
	var calls int32
	cs := scene.NewCycleScheduler(context.Background(), cycle, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	cs.Advance(20 * time.Millisecond)
	cs.Advance(20 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("refresh fired before the midpoint: %d calls", n)
	}
	if cs.State() != scene.CycleRunning {
		t.Errorf("state: got %v, want running", cs.State())
	}
}
