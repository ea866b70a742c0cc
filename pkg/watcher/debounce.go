package watcher

import (
	"sync"
	"time"
)

// DebounceQueue coalesces bursts of write events for the same file so a
// file is only handed off once its writer has gone quiet.
type DebounceQueue struct {
	timers   map[string]*time.Timer
	duration time.Duration
	mu       sync.Mutex
}

// NewDebounceQueue creates a queue with the given quiet period.
func NewDebounceQueue(duration time.Duration) *DebounceQueue {
	return &DebounceQueue{
		timers:   make(map[string]*time.Timer),
		duration: duration,
	}
}

// Add schedules the callback for filePath after the quiet period. A new
// event for the same path resets the timer.
func (d *DebounceQueue) Add(filePath string, callback func(string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[filePath]; exists {
		timer.Stop()
	}

	d.timers[filePath] = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		delete(d.timers, filePath)
		d.mu.Unlock()

		callback(filePath)
	})
}

// Stop cancels all pending timers and clears the queue.
func (d *DebounceQueue) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, timer := range d.timers {
		timer.Stop()
	}
	d.timers = make(map[string]*time.Timer)
}

// Pending returns the number of files waiting out their quiet period.
func (d *DebounceQueue) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
