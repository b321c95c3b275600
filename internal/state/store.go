package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Snapshot is the view state exposed to consumers.
type Snapshot[T any] struct {
	Data                T
	HasData             bool
	Loading             bool
	Error               string // empty when the last settled fetch succeeded
	LastUpdate          time.Time
	LastAttempt         time.Time
	ConsecutiveFailures int
}

// IsOffline returns true when the backend has failed several fetches in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Err returns Error as an error value, or nil.
func (s Snapshot[T]) Err() error {
	if s.Error == "" {
		return nil
	}
	return errors.New(s.Error)
}

// Store coordinates concurrent fetches into one view's snapshot.
//
// Every fetch calls Begin to obtain a sequence number and Apply with the
// result. Only the most recently begun fetch may settle the snapshot; results
// of superseded fetches are dropped regardless of arrival order. After Close
// every write is dropped.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
	seq      uint64
	closed   bool
	changed  chan struct{}
}

// NewStore returns a store in the loading state, as a freshly mounted view is.
func NewStore[T any]() *Store[T] {
	return &Store[T]{snapshot: Snapshot[T]{Loading: true}}
}

// Begin marks a fetch as in flight and returns its sequence number. ok is
// false once the store is closed.
func (s *Store[T]) Begin() (seq uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false
	}
	s.seq++
	s.snapshot.Loading = true
	s.notifyLocked()
	return s.seq, true
}

// Apply settles the fetch identified by seq. When err is non-nil the previous
// data is kept and the error is recorded. It reports whether the write was
// applied.
func (s *Store[T]) Apply(seq uint64, data T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.seq {
		return false
	}

	now := time.Now()
	s.snapshot.Loading = false
	s.snapshot.LastAttempt = now
	if err != nil {
		s.snapshot.Error = err.Error()
		s.snapshot.ConsecutiveFailures++
	} else {
		s.snapshot.Data = data
		s.snapshot.HasData = true
		s.snapshot.Error = ""
		s.snapshot.LastUpdate = now
		s.snapshot.ConsecutiveFailures = 0
	}
	s.notifyLocked()
	return true
}

// SetError records an error that did not come from a fetch, such as a failed
// mutation. Data and loading state are left alone.
func (s *Store[T]) SetError(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.snapshot.Error = msg
	s.notifyLocked()
	return true
}

// ClearError dismisses the current error.
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.snapshot.Error == "" {
		return
	}
	s.snapshot.Error = ""
	s.notifyLocked()
}

// Close tears the store down. Later writes are ignored.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.notifyLocked()
}

// Closed reports whether Close has been called.
func (s *Store[T]) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Changed returns a channel that is closed on the next state change.
func (s *Store[T]) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.changed == nil {
		s.changed = make(chan struct{})
	}
	return s.changed
}

// WaitSettled blocks until no fetch is in flight, the store is closed or ctx
// is done, and returns the snapshot at that point.
func (s *Store[T]) WaitSettled(ctx context.Context) (Snapshot[T], error) {
	for {
		ch := s.Changed()
		snap := s.Snapshot()
		if !snap.Loading || s.Closed() {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (s *Store[T]) notifyLocked() {
	if s.changed != nil {
		close(s.changed)
		s.changed = nil
	}
}
