// internal/store/store.go

// Package store holds the process-wide cache of the loaded medicine and
// history windows. It is the single source of truth for the UI layer and is
// mutated only by the sync and mutation engines. Every operation is atomic
// under one mutex, which stands in for the single mutating execution context
// the UI observes.
package store

import (
	"sort"
	"sync"

	"github.com/medkitapp/medkit-be/internal/core/domain"
)

// EventKind identifies which collection changed.
type EventKind int

const (
	MedicinesChanged EventKind = iota
	HistoryChanged
)

func (k EventKind) String() string {
	switch k {
	case MedicinesChanged:
		return "medicines_changed"
	case HistoryChanged:
		return "history_changed"
	default:
		return "unknown"
	}
}

// Event is published to subscribers after a store mutation. Observers re-read
// the collections they care about; events carry no payload.
type Event struct {
	Kind EventKind
}

// SharedStore is the in-memory window over the remote medicines and history
// collections. Membership is a subset of the remote data determined by the
// engines' pagination cursors, never the complete dataset.
type SharedStore struct {
	mu        sync.Mutex
	medicines []domain.Medicine
	history   []domain.HistoryEntry

	subs    map[int]chan Event
	nextSub int
}

// NewSharedStore creates an empty store.
func NewSharedStore() *SharedStore {
	return &SharedStore{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers an observer. The returned cancel func unregisters it
// and closes the channel. Events are dropped for subscribers that are not
// keeping up; the store never blocks on an observer.
func (s *SharedStore) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish must be called with s.mu held.
func (s *SharedStore) publish(kind EventKind) {
	for _, ch := range s.subs {
		select {
		case ch <- Event{Kind: kind}:
		default:
		}
	}
}

// Medicines returns a copy of the loaded medicine window in order.
func (s *SharedStore) Medicines() []domain.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Medicine, len(s.medicines))
	copy(out, s.medicines)
	return out
}

// MedicineCount returns the number of loaded medicines.
func (s *SharedStore) MedicineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.medicines)
}

// MedicineByID looks up a loaded medicine by identifier.
func (s *SharedStore) MedicineByID(id string) (domain.Medicine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.medicines {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Medicine{}, false
}

// IDsAt resolves client-side indices against the current in-memory ordering.
// Out-of-range indices are skipped.
func (s *SharedStore) IDsAt(indices []int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(s.medicines) {
			ids = append(ids, s.medicines[i].ID)
		}
	}
	return ids
}

// MergeMedicines appends medicines that are not already present, keyed by
// identifier. The merge is idempotent: an identifier is never duplicated no
// matter how often overlapping pages arrive. Returns the number appended.
func (s *SharedStore) MergeMedicines(batch []domain.Medicine) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(s.medicines))
	for _, m := range s.medicines {
		known[m.ID] = struct{}{}
	}

	added := 0
	for _, m := range batch {
		if _, ok := known[m.ID]; ok {
			continue
		}
		known[m.ID] = struct{}{}
		s.medicines = append(s.medicines, m)
		added++
	}

	if added > 0 {
		s.publish(MedicinesChanged)
	}
	return added
}

// ResetMedicines clears the medicine window. Used when the active filter or
// sort changes so stale pages are never visible.
func (s *SharedStore) ResetMedicines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.medicines) == 0 {
		return
	}
	s.medicines = s.medicines[:0]
	s.publish(MedicinesChanged)
}

// ReplaceMedicine swaps the loaded entry with the same identifier.
func (s *SharedStore) ReplaceMedicine(m domain.Medicine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.medicines {
		if s.medicines[i].ID == m.ID {
			s.medicines[i] = m
			s.publish(MedicinesChanged)
			return true
		}
	}
	return false
}

// SetStock updates the stock of the loaded entry in place.
func (s *SharedStore) SetStock(id string, stock int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.medicines {
		if s.medicines[i].ID == id {
			s.medicines[i].Stock = stock
			s.publish(MedicinesChanged)
			return true
		}
	}
	return false
}

// RemoveMedicines drops the given identifiers from the medicine window.
func (s *SharedStore) RemoveMedicines(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.medicines[:0]
	removed := false
	for _, m := range s.medicines {
		if _, ok := drop[m.ID]; ok {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	s.medicines = kept

	if removed {
		s.publish(MedicinesChanged)
	}
}

// History returns a copy of the loaded history window.
func (s *SharedStore) History() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryFor returns the loaded entries of one medicine, newest first.
func (s *SharedStore) HistoryFor(medicineID string) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.HistoryEntry
	for _, e := range s.history {
		if e.MedicineID == medicineID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MergeHistory appends entries not already present, keyed by identifier.
func (s *SharedStore) MergeHistory(batch []domain.HistoryEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(s.history))
	for _, e := range s.history {
		known[e.ID] = struct{}{}
	}

	added := 0
	for _, e := range batch {
		if _, ok := known[e.ID]; ok {
			continue
		}
		known[e.ID] = struct{}{}
		s.history = append(s.history, e)
		added++
	}

	if added > 0 {
		s.publish(HistoryChanged)
	}
	return added
}

// AppendHistory adds a single entry. Duplicate identifiers are skipped.
func (s *SharedStore) AppendHistory(e domain.HistoryEntry) {
	s.MergeHistory([]domain.HistoryEntry{e})
}

// RemoveHistoryFor drops every loaded entry belonging to the given medicines
// and returns the removed entries so a failed cascade can restore them.
func (s *SharedStore) RemoveHistoryFor(medicineIDs []string) []domain.HistoryEntry {
	if len(medicineIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(medicineIDs))
	for _, id := range medicineIDs {
		drop[id] = struct{}{}
	}

	var removed []domain.HistoryEntry
	kept := s.history[:0]
	for _, e := range s.history {
		if _, ok := drop[e.MedicineID]; ok {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	s.history = kept

	if len(removed) > 0 {
		s.publish(HistoryChanged)
	}
	return removed
}
