package utils

import (
	"sync"
	"time"
)

// Debouncer provides a way to debounce function calls
type Debouncer struct {
	mutex      sync.Mutex
	timer      *time.Timer
	pending    func()
	generation uint64
	lastCalled time.Time
}

// Debounce calls the provided function after the specified duration,
// canceling any previous pending calls
func (d *Debouncer) Debounce(duration time.Duration, fn func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// Cancel existing timer if present
	if d.timer != nil {
		d.timer.Stop()
	}

	d.generation++
	gen := d.generation
	d.pending = fn

	// Schedule new timer
	d.timer = time.AfterFunc(duration, func() {
		if run := d.claim(gen); run != nil {
			run()
		}
	})
}

// Flush runs the pending call immediately, if there is one.
func (d *Debouncer) Flush() bool {
	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	run := d.claimLocked(d.generation)
	d.mutex.Unlock()

	if run == nil {
		return false
	}
	run()
	return true
}

// Stop drops the pending call without running it.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.pending = nil
}

// LastCalled returns when a debounced function last ran.
func (d *Debouncer) LastCalled() time.Time {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.lastCalled
}

func (d *Debouncer) claim(gen uint64) func() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.claimLocked(gen)
}

// claimLocked hands out the pending call once. A timer that fired after it was
// superseded finds a newer generation and gets nothing.
func (d *Debouncer) claimLocked(gen uint64) func() {
	if gen != d.generation || d.pending == nil {
		return nil
	}
	run := d.pending
	d.pending = nil
	d.timer = nil
	d.lastCalled = time.Now()
	return run
}
