package organizer

import (
	"sync"
	"time"
)

// keyedMutex hands out exclusive locks by string key with a maximum hold
// duration. A holder that exceeds the hold cap forfeits the lock to the next
// waiter; the wedged holder's release becomes a no-op.
type keyedMutex struct {
	maxHold time.Duration

	mu    sync.Mutex
	locks map[string]*lockState
}

type lockState struct {
	held     bool
	gen      uint64
	deadline time.Time
	waiters  int
	released chan struct{}
}

func newKeyedMutex(maxHold time.Duration) *keyedMutex {
	return &keyedMutex{
		maxHold: maxHold,
		locks:   make(map[string]*lockState),
	}
}

// Acquire blocks until the lock for key is available or its current holder
// has exceeded the hold cap. The returned release function is safe to call
// exactly once; calling it after the lock has been forfeited does nothing.
func (k *keyedMutex) Acquire(key string) (release func()) {
	for {
		k.mu.Lock()
		st := k.locks[key]
		if st == nil {
			st = &lockState{}
			k.locks[key] = st
		}

		now := time.Now()
		if !st.held || now.After(st.deadline) {
			st.held = true
			st.gen++
			st.deadline = now.Add(k.maxHold)
			st.released = make(chan struct{})
			gen := st.gen
			ch := st.released
			k.mu.Unlock()
			return func() { k.release(key, gen, ch) }
		}

		st.waiters++
		waitCh := st.released
		deadline := st.deadline
		k.mu.Unlock()

		timer := time.NewTimer(time.Until(deadline) + time.Millisecond)
		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
		}

		k.mu.Lock()
		st.waiters--
		k.mu.Unlock()
	}
}

func (k *keyedMutex) release(key string, gen uint64, ch chan struct{}) {
	k.mu.Lock()
	defer k.mu.Unlock()

	st := k.locks[key]
	if st == nil || st.gen != gen || !st.held {
		// The lock was forfeited and re-acquired; this release is stale.
		return
	}
	st.held = false
	close(ch)
	if st.waiters == 0 {
		delete(k.locks, key)
	}
}
