package alerts

import (
	"sync"
	"time"
)

// DefaultRetentionCap bounds how many alerts the store keeps. Newest
// insertions win; the cap truncates the tail.
const DefaultRetentionCap = 20

// Store holds the live alert list for one dashboard session. Merging new
// rule candidates preserves acknowledgement state and first-observation
// timestamps across re-fires; a dismissed alert is removed outright and a
// later re-fire of the same condition creates a fresh instance.
//
// The evaluation loop is single-threaded, but acknowledge/dismiss arrive
// from HTTP handlers, so access is guarded by a mutex.
type Store struct {
	mu     sync.Mutex
	cap    int
	alerts []Alert // head is most recent
}

// NewStore creates a store with the default retention cap.
func NewStore() *Store {
	return NewStoreWithCap(DefaultRetentionCap)
}

// NewStoreWithCap creates a store with an explicit retention cap.
func NewStoreWithCap(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultRetentionCap
	}
	return &Store{cap: capacity}
}

// Merge folds one tick's rule candidates into the live list and returns the
// surviving alerts, most recent first.
//
// Passes, in order:
//  1. expire: drop prior alerts whose auto-expiry window has elapsed
//  2. merge: re-fires update fields in place but keep the existing
//     Acknowledged flag and original CreatedAt; unseen IDs insert at
//     the head with CreatedAt=now
//  3. cap: truncate the tail to the retention cap
func (s *Store) Merge(candidates []Alert, now time.Time) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	survivors := s.alerts[:0:0]
	for _, a := range s.alerts {
		if !a.Expired(now) {
			survivors = append(survivors, a)
		}
	}

	// Buggy rules can emit duplicate IDs in one tick; last write wins.
	for _, cand := range dedupeByID(candidates) {
		idx := indexByID(survivors, cand.ID)
		if idx == -1 {
			cand.Acknowledged = false
			cand.CreatedAt = now
			survivors = append([]Alert{cand}, survivors...)
			continue
		}
		cand.Acknowledged = survivors[idx].Acknowledged
		cand.CreatedAt = survivors[idx].CreatedAt
		survivors[idx] = cand
	}

	if len(survivors) > s.cap {
		survivors = survivors[:s.cap]
	}

	s.alerts = survivors
	return s.snapshotLocked()
}

// Acknowledge marks an alert as seen. Idempotent; does not affect the
// expiry countdown. Returns false if the ID is not live.
func (s *Store) Acknowledge(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Acknowledged = true
			return true
		}
	}
	return false
}

// Dismiss removes an alert permanently, regardless of auto-expiry. The same
// condition is free to reappear as a new alert on a later tick.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns a copy of the live alert list, most recent first.
func (s *Store) Active() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnacknowledgedCount returns how many live alerts are still unacknowledged.
func (s *Store) UnacknowledgedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if !a.Acknowledged {
			n++
		}
	}
	return n
}

func (s *Store) snapshotLocked() []Alert {
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func indexByID(list []Alert, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func dedupeByID(list []Alert) []Alert {
	out := make([]Alert, 0, len(list))
	seen := make(map[string]int, len(list))
	for _, a := range list {
		if idx, ok := seen[a.ID]; ok {
			out[idx] = a
			continue
		}
		seen[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
