package snapshot_sync

import (
	"sync"
	"time"
)

const DefaultDebounceWindow = 200 * time.Millisecond

// CoalescingTrigger collapses bursts of calls into a single trailing
// invocation of fn, window after the last call.
type CoalescingTrigger struct {
	clock  Clock
	window time.Duration
	fn     func()

	mu        sync.Mutex
	pending   Timer
	cancelled bool
}

// NewCoalescingTrigger creates a trigger that runs fn once per settled burst.
func NewCoalescingTrigger(clock Clock, window time.Duration, fn func()) *CoalescingTrigger {
	if clock == nil {
		clock = RealClock{}
	}
	return &CoalescingTrigger{clock: clock, window: window, fn: fn}
}

// Trigger schedules fn for now+window, replacing any pending schedule.
func (t *CoalescingTrigger) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	var timer Timer
	timer = t.clock.AfterFunc(t.window, func() {
		t.mu.Lock()
		if t.cancelled || t.pending != timer {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()
		t.fn()
	})
	t.pending = timer
}

// Pending reports whether an invocation is scheduled.
func (t *CoalescingTrigger) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Cancel drops any scheduled invocation and ignores later calls.
func (t *CoalescingTrigger) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
