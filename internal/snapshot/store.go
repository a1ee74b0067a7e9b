// Package snapshot keeps the latest screened quote snapshot and
// refreshes it from the quote source.
package snapshot

import (
	"sync"
	"time"

	"github.com/wonny/b3monitor/internal/selection"
)

// Snapshot is one completed refresh
type Snapshot struct {
	ID      string            `json:"id"`
	TakenAt time.Time         `json:"takenAt"`
	Result  *selection.Result `json:"result"`
}

// subscriberBuffer is how many snapshots a slow subscriber may lag
const subscriberBuffer = 4

// Store holds the latest snapshot and fans new ones out to subscribers.
// Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	latest *Snapshot
	subs   map[chan *Snapshot]struct{}
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		subs: make(map[chan *Snapshot]struct{}),
	}
}

// Latest returns the current snapshot, or nil before the first refresh
func (s *Store) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Set replaces the current snapshot and notifies subscribers. A
// subscriber whose buffer is full misses this snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = snap
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Subscribe returns a channel receiving every new snapshot and a
// function that unsubscribes and closes it
func (s *Store) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, subscriberBuffer)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscribers
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
