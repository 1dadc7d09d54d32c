// internal/client/policy/debounce.go

package policy

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of calls, once the burst has been
// quiet for the wait period
type Debouncer struct {
	wait  time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a trailing-edge debouncer
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Call schedules fn, replacing any call still waiting
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Stop drops a pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
