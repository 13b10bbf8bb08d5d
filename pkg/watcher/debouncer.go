package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is how long a burst of file events must go quiet before
// the tree is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// debouncer runs fire once per burst of Trigger calls, after the burst has
// been quiet for delay.
type debouncer struct {
	delay time.Duration
	fire  func()

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func newDebouncer(delay time.Duration, fire func()) *debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debouncer{delay: delay, fire: fire}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run.
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()

		if current {
			d.fire()
		}
	})
}

// Pending reports whether a fire is scheduled
func (d *debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
