package index

import (
	"sync/atomic"
	"time"
)

// Store publishes the current snapshot. Readers call Current once per
// operation and use that snapshot throughout.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store with no snapshot published.
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot, or nil before the first build.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish replaces the current snapshot and returns the previous one.
func (s *Store) Publish(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// Ready reports whether a non-empty snapshot is published.
func (s *Store) Ready() bool {
	return !s.Current().IsEmpty()
}

// LastBuilt returns the build time of the published snapshot, zero if none.
func (s *Store) LastBuilt() time.Time {
	return s.Current().BuiltAt()
}
