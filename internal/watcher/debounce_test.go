package watcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceCollapsesBursts(t *testing.T) {
	var index debounceIndex
	index.init()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		index.schedule("/watch/file.txt", 30*time.Millisecond, func() {
			fired.Add(1)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("five rapid schedules should fire once, fired %d times", got)
	}
	if index.pendingCount() != 0 {
		t.Fatalf("expected no pending timers, got %d", index.pendingCount())
	}
}

func TestDebounceIndependentPaths(t *testing.T) {
	var index debounceIndex
	index.init()

	var mu sync.Mutex
	fired := map[string]int{}
	for _, path := range []string{"/watch/a", "/watch/b", "/watch/c"} {
		path := path
		index.schedule(path, 10*time.Millisecond, func() {
			mu.Lock()
			fired[path]++
			mu.Unlock()
		})
	}

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 3 {
		t.Fatalf("expected three independent fires, got %v", fired)
	}
	for path, count := range fired {
		if count != 1 {
			t.Fatalf("path %s fired %d times", path, count)
		}
	}
}

func TestDebounceCancel(t *testing.T) {
	var index debounceIndex
	index.init()

	var fired atomic.Int32
	index.schedule("/watch/file.txt", 20*time.Millisecond, func() {
		fired.Add(1)
	})
	index.cancel("/watch/file.txt")

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("canceled timer still fired")
	}
}

func TestDebounceZeroWindowFiresInline(t *testing.T) {
	var index debounceIndex
	index.init()

	var fired atomic.Int32
	index.schedule("/watch/file.txt", 0, func() {
		fired.Add(1)
	})
	if fired.Load() != 1 {
		t.Fatal("zero window should fire synchronously")
	}
}

func TestDebounceRescheduleRaceNeverDoubleFires(t *testing.T) {
	var index debounceIndex
	index.init()

	var fired atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			index.schedule("/watch/contended", time.Millisecond, func() {
				fired.Add(1)
			})
			time.Sleep(time.Millisecond)
		}
	}()
	<-done
	time.Sleep(20 * time.Millisecond)

	// Some fires complete between reschedules; the invariant is that the
	// count never exceeds the schedule count and the index drains.
	if got := fired.Load(); got > 200 {
		t.Fatalf("double execution detected: %d fires for 200 schedules", got)
	}
	if index.pendingCount() != 0 {
		t.Fatalf("expected drained index, got %d pending", index.pendingCount())
	}
}
