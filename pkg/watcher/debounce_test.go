package watcher

import (
	"sync"
	"testing"
	"time"
)

func TestDebounceFiresOnceAfterQuietPeriod(t *testing.T) {
	q := NewDebounceQueue(50 * time.Millisecond)
	defer q.Stop()

	var mu sync.Mutex
	calls := 0

	for i := 0; i < 5; i++ {
		q.Add("/tmp/file.mp4", func(path string) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
}

func TestDebounceTracksFilesIndependently(t *testing.T) {
	q := NewDebounceQueue(30 * time.Millisecond)
	defer q.Stop()

	var mu sync.Mutex
	fired := make(map[string]int)
	callback := func(path string) {
		mu.Lock()
		fired[path]++
		mu.Unlock()
	}

	q.Add("/a.mp4", callback)
	q.Add("/b.mp4", callback)

	if pending := q.Pending(); pending != 2 {
		t.Errorf("Pending() = %d, want 2", pending)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired["/a.mp4"] != 1 || fired["/b.mp4"] != 1 {
		t.Errorf("fired = %v, want each file once", fired)
	}
	if pending := q.Pending(); pending != 0 {
		t.Errorf("Pending() after fire = %d, want 0", pending)
	}
}

func TestDebounceStopCancelsPending(t *testing.T) {
	q := NewDebounceQueue(30 * time.Millisecond)

	var mu sync.Mutex
	calls := 0
	q.Add("/a.mp4", func(path string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	q.Stop()
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("stopped queue still fired %d times", calls)
	}
}
