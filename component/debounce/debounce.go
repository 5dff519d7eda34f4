// Package debounce provides cancellable one-shot timers.
package debounce

import (
	"sort"
	"sync"
	"time"
)

// Handle is an armed timer. Cancel is idempotent and safe after firing.
type Handle interface {
	Cancel()
}

// Scheduler arms callbacks. Callbacks run on a goroutine owned by the
// scheduler, never on the caller of Arm.
type Scheduler interface {
	Arm(delay time.Duration, fn func()) Handle
}

type systemScheduler struct{}

type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Cancel() {
	h.timer.Stop()
}

func (systemScheduler) Arm(delay time.Duration, fn func()) Handle {
	return &timerHandle{timer: time.AfterFunc(delay, fn)}
}

// System is backed by time.AfterFunc.
func System() Scheduler {
	return systemScheduler{}
}

// Manual is a Scheduler driven by Advance, for deterministic tests and
// dry runs.
type Manual struct {
	mux    sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	owner     *Manual
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

func (t *manualTimer) Cancel() {
	t.owner.mux.Lock()
	defer t.owner.mux.Unlock()
	t.cancelled = true
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Arm(delay time.Duration, fn func()) Handle {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.seq++
	t := &manualTimer{owner: m, at: m.now + delay, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward and runs every due callback in deadline
// order on the calling goroutine.
func (m *Manual) Advance(d time.Duration) {
	m.mux.Lock()
	m.now += d
	var due, rest []*manualTimer
	for _, t := range m.timers {
		switch {
		case t.cancelled:
		case t.at <= m.now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.timers = rest
	m.mux.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending counts armed, not yet cancelled timers.
func (m *Manual) Pending() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}
