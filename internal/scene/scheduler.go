package scene

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// CycleState describes where the scheduler is within its repeating cycle.
type CycleState int

const (
	// CycleRunning: elapsed < D, no refresh outstanding.
	CycleRunning CycleState = iota
	// CycleRefreshing: a background reconciliation is in flight.
	CycleRefreshing
	// CycleIdle: elapsed >= D and no refresh pending; next advance resets.
	CycleIdle
)

func (s CycleState) String() string {
	switch s {
	case CycleRefreshing:
		return "refreshing"
	case CycleIdle:
		return "idle"
	default:
		return "running"
	}
}

// RefreshFunc performs one full snapshot refresh: poll the simulation and
// reconcile the result into the scene. It runs off the frame path; only the
// network round trip should dominate its latency. A non-nil error means the
// tables were left untouched.
type RefreshFunc func(ctx context.Context) error

// CycleScheduler is the single control loop pacing the engine. It advances a
// repeating cycle of fixed duration D, fires one background refresh per cycle
// at the midpoint, and holds the cycle open past D while that refresh is
// outstanding, so the interpolator is never asked to chase a target that has
// not arrived yet. The refresh latency hides behind the back half of the
// cycle, so a healthy round trip costs no visible time at all.
//
// At most one refresh is in flight at any time; the in-flight flag is the
// mutual exclusion over the refresh resource, and overlapping triggers are
// no-ops. Refreshes therefore apply strictly in send order.
type CycleScheduler struct {
	ctx     context.Context
	cycle   time.Duration
	refresh RefreshFunc

	mu        sync.Mutex
	elapsed   time.Duration
	triggered bool // refresh already fired this cycle

	inFlight atomic.Bool

	refreshes uint64 // atomic
	failures  uint64 // atomic
}

// NewCycleScheduler creates a scheduler. The context bounds the lifetime of
// background refreshes; cancel it on shutdown.
func NewCycleScheduler(ctx context.Context, cycle time.Duration, refresh RefreshFunc) *CycleScheduler {
	return &CycleScheduler{
		ctx:     ctx,
		cycle:   cycle,
		refresh: refresh,
	}
}

// Advance moves the cycle forward by one frame delta. Called once per display
// frame; never blocks on I/O.
func (cs *CycleScheduler) Advance(dt time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.elapsed += dt

	// Midpoint: fire the background refresh for this cycle. The CAS is the
	// only gate; if a previous refresh is still in flight the trigger is a
	// no-op and this cycle goes without fresh data.
	if cs.elapsed >= cs.cycle/2 && !cs.triggered {
		if cs.inFlight.CompareAndSwap(false, true) {
			cs.triggered = true
			go cs.runRefresh()
		}
	}

	if cs.elapsed >= cs.cycle {
		if cs.inFlight.Load() {
			// Cycle-hold: a late refresh keeps the cycle pinned at D instead
			// of resetting, so tween progress stays clamped at its end.
			cs.elapsed = cs.cycle
			return
		}
		cs.elapsed = 0
		cs.triggered = false
	}
}

// runRefresh executes one refresh off the frame path and clears the
// in-flight flag when done. Failures are logged and counted; the scene is
// untouched and the next cycle is the retry.
func (cs *CycleScheduler) runRefresh() {
	defer cs.inFlight.Store(false)

	atomic.AddUint64(&cs.refreshes, 1)
	if err := cs.refresh(cs.ctx); err != nil {
		atomic.AddUint64(&cs.failures, 1)
		log.Printf("⚠️ Snapshot refresh failed: %v", err)
	}
}

// Progress returns cycle progress in [0,1].
func (cs *CycleScheduler) Progress() float64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.cycle <= 0 {
		return 0
	}
	p := float64(cs.elapsed) / float64(cs.cycle)
	if p > 1 {
		p = 1
	}
	return p
}

// Elapsed returns the current position within the cycle.
func (cs *CycleScheduler) Elapsed() time.Duration {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.elapsed
}

// State reports the scheduler's current phase.
func (cs *CycleScheduler) State() CycleState {
	if cs.inFlight.Load() {
		return CycleRefreshing
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.elapsed >= cs.cycle {
		return CycleIdle
	}
	return CycleRunning
}

// RefreshInFlight reports whether a background refresh is outstanding.
func (cs *CycleScheduler) RefreshInFlight() bool {
	return cs.inFlight.Load()
}

// GetStats returns refresh counters for the API surface.
func (cs *CycleScheduler) GetStats() map[string]uint64 {
	return map[string]uint64{
		"refreshes": atomic.LoadUint64(&cs.refreshes),
		"failures":  atomic.LoadUint64(&cs.failures),
	}
}
