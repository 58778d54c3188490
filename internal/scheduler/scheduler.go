// Package scheduler arms one-shot and periodic callbacks against a clock.
//
// Every callback runs while holding the Locker passed to New, so scheduled
// work is serialized with whatever else takes that lock (the API service).
// A callback whose handle was cancelled before it acquired the lock is
// discarded.
package scheduler

import (
	"log"
	"sync"
	"time"

	"github.com/fentz26/daylog/internal/clock"
)

// Handle identifies an armed callback. The zero Handle is never issued.
type Handle uint64

// Scheduler manages armed callbacks.
type Scheduler struct {
	clock  clock.Clock
	locker sync.Locker

	mu      sync.Mutex
	next    Handle
	timers  map[Handle]clock.Timer
	stopped bool
}

// New creates a scheduler. A nil locker gets a private mutex.
func New(c clock.Clock, locker sync.Locker) *Scheduler {
	if c == nil {
		c = clock.Real{}
	}
	if locker == nil {
		locker = &sync.Mutex{}
	}
	return &Scheduler{
		clock:  c,
		locker: locker,
		timers: make(map[Handle]clock.Timer),
	}
}

// Now returns the scheduler's clock reading.
func (sch *Scheduler) Now() time.Time {
	return sch.clock.Now()
}

// Arm runs fn once at the given instant. An instant in the past fires as
// soon as possible.
func (sch *Scheduler) Arm(at time.Time, fn func()) Handle {
	d := at.Sub(sch.clock.Now())
	if d < 0 {
		d = 0
	}

	sch.mu.Lock()
	defer sch.mu.Unlock()
	if sch.stopped {
		return 0
	}
	sch.next++
	h := sch.next
	sch.timers[h] = sch.clock.AfterFunc(d, func() { sch.fireOnce(h, fn) })
	return h
}

// Every runs fn each interval until cancelled. The next run is armed after
// fn returns, so runs never overlap.
func (sch *Scheduler) Every(interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		interval = time.Second
	}

	sch.mu.Lock()
	defer sch.mu.Unlock()
	if sch.stopped {
		return 0
	}
	sch.next++
	h := sch.next
	sch.armTick(h, interval, fn)
	return h
}

// Cancel disarms h. Cancelling an unknown or already-fired handle is a no-op.
func (sch *Scheduler) Cancel(h Handle) {
	sch.mu.Lock()
	t, ok := sch.timers[h]
	delete(sch.timers, h)
	sch.mu.Unlock()

	if ok {
		t.Stop()
	}
}

// Pending returns the number of armed callbacks.
func (sch *Scheduler) Pending() int {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return len(sch.timers)
}

// Stop disarms everything. Arm and Every become no-ops afterwards.
func (sch *Scheduler) Stop() {
	sch.mu.Lock()
	timers := sch.timers
	sch.timers = make(map[Handle]clock.Timer)
	sch.stopped = true
	sch.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	log.Println("Scheduler stopped")
}

// armTick must be called with sch.mu held.
func (sch *Scheduler) armTick(h Handle, interval time.Duration, fn func()) {
	sch.timers[h] = sch.clock.AfterFunc(interval, func() { sch.tick(h, interval, fn) })
}

func (sch *Scheduler) fireOnce(h Handle, fn func()) {
	sch.locker.Lock()
	defer sch.locker.Unlock()

	sch.mu.Lock()
	_, live := sch.timers[h]
	delete(sch.timers, h)
	sch.mu.Unlock()

	if live {
		fn()
	}
}

func (sch *Scheduler) tick(h Handle, interval time.Duration, fn func()) {
	sch.locker.Lock()
	defer sch.locker.Unlock()

	sch.mu.Lock()
	_, live := sch.timers[h]
	sch.mu.Unlock()
	if !live {
		return
	}

	fn()

	sch.mu.Lock()
	defer sch.mu.Unlock()
	// fn may have cancelled its own handle.
	if _, live := sch.timers[h]; live && !sch.stopped {
		sch.armTick(h, interval, fn)
	}
}
