package dispatch

import (
	"context"
	"sync"
)

// Tracker holds at most one in-flight dispatch per key (a tab id). Beginning
// a new flight for a key cancels the previous one.
type Tracker struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	cancel context.CancelFunc
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{flights: make(map[string]*flight)}
}

// Begin starts a flight for key and returns its context and a finish func.
// finish releases the flight and reports whether it still owned key; false
// means a later Begin or a Cancel took over and the result must be discarded.
func (t *Tracker) Begin(parent context.Context, key string) (context.Context, func() bool) {
	ctx, cancel := context.WithCancel(parent)
	f := &flight{cancel: cancel}

	t.mu.Lock()
	if prev, ok := t.flights[key]; ok {
		prev.cancel()
	}
	t.flights[key] = f
	t.mu.Unlock()

	var once sync.Once
	current := false
	finish := func() bool {
		once.Do(func() {
			t.mu.Lock()
			if t.flights[key] == f {
				delete(t.flights, key)
				current = true
			}
			t.mu.Unlock()
			cancel()
		})
		return current
	}
	return ctx, finish
}

// Cancel aborts the flight for key. It reports whether one was pending.
func (t *Tracker) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.flights[key]
	if !ok {
		return false
	}
	f.cancel()
	delete(t.flights, key)
	return true
}

// Pending reports whether key has a flight in progress.
func (t *Tracker) Pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.flights[key]
	return ok
}

// CancelAll aborts every flight.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, f := range t.flights {
		f.cancel()
		delete(t.flights, key)
	}
}
