package optimistic

import (
	"sync"
	"time"
)

// PendingOperation is one in-flight optimistic mutation. At most one
// exists per operation id; it is removed when the request settles either
// way.
type PendingOperation struct {
	ID        string
	Type      string
	Timestamp time.Time
}

// State is a copied snapshot of the store. Mutating it does not affect
// the store.
type State[T any] struct {
	// Data is the client-side view of the collection.
	Data []T

	// Pending lists unsettled optimistic operations.
	Pending []PendingOperation

	// Err is the most recent failure, cleared when a new optimistic
	// action starts.
	Err error
}

// Store holds the authoritative client-side view of one entity
// collection. All mutations flow through the engine's
// apply/reconcile/rollback transitions.
type Store[T any] struct {
	mu      sync.Mutex
	data    []T
	pending []PendingOperation
	err     error

	id       func(T) string
	onChange func(State[T])
}

// StoreOption configures a Store.
type StoreOption[T any] func(*Store[T])

// OnChange registers a callback invoked (outside the store lock is NOT
// guaranteed; keep it fast) after every state transition. UI bindings
// subscribe here.
func OnChange[T any](fn func(State[T])) StoreOption[T] {
	return func(s *Store[T]) {
		s.onChange = fn
	}
}

// NewStore creates a store for entities whose identity is given by id.
func NewStore[T any](id func(T) string, opts ...StoreOption[T]) *Store[T] {
	s := &Store[T]{id: id}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Data returns a copy of the entity slice.
func (s *Store[T]) Data() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.data...)
}

// Err returns the most recent failure, if any.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetData replaces the collection wholesale. Used for the initial load
// (from cache or server), never for optimistic transitions.
func (s *Store[T]) SetData(data []T) {
	s.mu.Lock()
	s.data = append([]T(nil), data...)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store[T]) snapshotLocked() State[T] {
	return State[T]{
		Data:    append([]T(nil), s.data...),
		Pending: append([]PendingOperation(nil), s.pending...),
		Err:     s.err,
	}
}

func (s *Store[T]) notify(snap State[T]) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

// apply performs the optimistic mutation for op, records it in the
// pending ledger, clears the error slot, and returns the derived inverse
// that undoes exactly this mutation.
func (s *Store[T]) apply(kind Kind, item T, op PendingOperation) (inverse func([]T) []T) {
	s.mu.Lock()

	itemID := s.id(item)
	switch kind {
	case KindCreate:
		s.data = append(s.data, item)
		inverse = removeByID(s.id, itemID)

	case KindUpdate:
		if i := indexByID(s.data, s.id, itemID); i >= 0 {
			replaced := s.data[i]
			s.data[i] = item
			inverse = replaceByID(s.id, replaced)
		} else {
			// Nothing matched; the mutation was a no-op and so is the
			// inverse.
			inverse = func(data []T) []T { return data }
		}

	case KindDelete:
		if i := indexByID(s.data, s.id, itemID); i >= 0 {
			removed := s.data[i]
			s.data = append(s.data[:i:i], s.data[i+1:]...)
			inverse = insertAt(i, removed)
		} else {
			inverse = func(data []T) []T { return data }
		}
	}

	s.pending = append(s.pending, op)
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return inverse
}

// reconcile swaps the tentative entry (matched by tempID) for the server
// entity and settles the operation.
func (s *Store[T]) reconcile(opID, tempID string, server T) {
	s.mu.Lock()
	if i := indexByID(s.data, s.id, tempID); i >= 0 {
		s.data[i] = server
	}
	s.removePendingLocked(opID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// settle removes the operation from the ledger; the optimistic mutation
// already reflects final state.
func (s *Store[T]) settle(opID string) {
	s.mu.Lock()
	s.removePendingLocked(opID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// fail applies the inverse, settles the operation, and records the
// normalized error.
func (s *Store[T]) fail(opID string, inverse func([]T) []T, err error) {
	s.mu.Lock()
	if inverse != nil {
		s.data = inverse(s.data)
	}
	s.removePendingLocked(opID)
	s.err = err
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store[T]) removePendingLocked(opID string) {
	for i, op := range s.pending {
		if op.ID == opID {
			s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
			return
		}
	}
}

func indexByID[T any](data []T, id func(T) string, target string) int {
	for i, item := range data {
		if id(item) == target {
			return i
		}
	}
	return -1
}

func removeByID[T any](id func(T) string, target string) func([]T) []T {
	return func(data []T) []T {
		if i := indexByID(data, id, target); i >= 0 {
			return append(data[:i:i], data[i+1:]...)
		}
		return data
	}
}

func replaceByID[T any](id func(T) string, original T) func([]T) []T {
	target := id(original)
	return func(data []T) []T {
		if i := indexByID(data, id, target); i >= 0 {
			out := append([]T(nil), data...)
			out[i] = original
			return out
		}
		return data
	}
}

func insertAt[T any](index int, item T) func([]T) []T {
	return func(data []T) []T {
		if index > len(data) {
			index = len(data)
		}
		out := make([]T, 0, len(data)+1)
		out = append(out, data[:index]...)
		out = append(out, item)
		out = append(out, data[index:]...)
		return out
	}
}
