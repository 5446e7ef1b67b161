package application

import (
	"sync"
	"time"
)

// watchdog is a one-shot deadline for a single process. It fires at most
// once, and never after it has been disarmed.
type watchdog struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
	done    chan struct{}
}

func newWatchdog() *watchdog {
	return &watchdog{done: make(chan struct{})}
}

// Arm schedules fire after d. Arming a disarmed or already armed watchdog is a no-op.
func (w *watchdog) Arm(d time.Duration, fire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || w.timer != nil {
		return
	}
	w.timer = time.AfterFunc(d, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.stopped = true
		w.fired = true
		w.mu.Unlock()

		defer close(w.done)
		fire()
	})
}

// Disarm cancels the deadline and reports whether it had already fired.
// When it had, Disarm waits for the fire callback to return.
func (w *watchdog) Disarm() bool {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
		}
	}
	fired := w.fired
	w.mu.Unlock()

	if fired {
		<-w.done
	}
	return fired
}
