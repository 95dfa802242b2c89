package watcher

import (
	"sync"
	"time"
)

// debounceIndex keys cancellable scheduled tasks by path. Cancel and
// reschedule happen under one lock, and every fire re-checks its generation
// under that lock, so a reset can never race a firing timer into double
// execution.
type debounceIndex struct {
	mu      sync.Mutex
	pending map[string]*debounceTask
}

type debounceTask struct {
	timer *time.Timer
	gen   uint64
}

func (d *debounceIndex) init() {
	d.pending = make(map[string]*debounceTask)
}

// schedule arms (or re-arms) the timer for path. If a timer is already
// pending the window restarts; the previously armed fire becomes a no-op.
func (d *debounceIndex) schedule(path string, window time.Duration, fire func()) {
	if window <= 0 {
		fire()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if task, ok := d.pending[path]; ok {
		// A fire already in flight sees the bumped generation and stands
		// down, whether or not Stop won the race.
		task.timer.Stop()
		task.gen++
		task.timer = time.AfterFunc(window, d.fireFunc(path, task.gen, fire))
		return
	}

	task := &debounceTask{gen: 1}
	task.timer = time.AfterFunc(window, d.fireFunc(path, 1, fire))
	d.pending[path] = task
}

func (d *debounceIndex) fireFunc(path string, gen uint64, fire func()) func() {
	return func() {
		d.mu.Lock()
		task, ok := d.pending[path]
		if !ok || task.gen != gen {
			d.mu.Unlock()
			return
		}
		delete(d.pending, path)
		d.mu.Unlock()
		fire()
	}
}

// cancel drops any pending task for path.
func (d *debounceIndex) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if task, ok := d.pending[path]; ok {
		task.gen++
		task.timer.Stop()
		delete(d.pending, path)
	}
}

// cancelAll drops every pending task.
func (d *debounceIndex) cancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, task := range d.pending {
		task.gen++
		task.timer.Stop()
		delete(d.pending, path)
	}
}

// pendingCount reports the number of armed timers, for tests.
func (d *debounceIndex) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
