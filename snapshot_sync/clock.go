package snapshot_sync

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so scheduling can be driven by tests.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f each interval until the returned timer is stopped.
	Every(interval time.Duration, f func()) Timer
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (RealClock) Every(interval time.Duration, f func()) Timer {
	t := &ticker{ticker: time.NewTicker(interval), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				f()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type ticker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// ManualClock is a virtual clock. Scheduled callbacks run synchronously from
// Advance, in due-time order.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

// NewManualClock returns a virtual clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

type manualTimer struct {
	clock    *ManualClock
	due      time.Time
	interval time.Duration
	seq      int
	f        func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.schedule(d, 0, f)
}

func (c *ManualClock) Every(interval time.Duration, f func()) Timer {
	return c.schedule(interval, interval, f)
}

func (c *ManualClock) schedule(d, interval time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, due: c.now.Add(d), interval: interval, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of live timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, firing every timer that becomes due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// nextDue pops the earliest timer due at or before target and moves the clock
// to its due time. Periodic timers are rescheduled.
func (c *ManualClock) nextDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due.Equal(c.timers[j].due) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].due.Before(c.timers[j].due)
	})
	if len(c.timers) == 0 || c.timers[0].due.After(target) {
		return nil
	}

	t := c.timers[0]
	c.now = t.due
	if t.interval > 0 {
		t.due = t.due.Add(t.interval)
	} else {
		t.stopped = true
	}
	return t
}
