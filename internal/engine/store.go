package engine

import (
	"github.com/koba/sqlplay/internal/schema"
)

// Store is the mutable set of tables owned by an Engine. Handlers never mutate
// a stored table in place: they build a replacement and commit it on success.
type Store struct {
	snap *schema.Snapshot
}

// NewStore creates a store holding a deep copy of snap.
func NewStore(snap *schema.Snapshot) *Store {
	return &Store{snap: snap.Clone()}
}

// Snapshot returns a deep copy of the store.
func (s *Store) Snapshot() *schema.Snapshot {
	return s.snap.Clone()
}

func (s *Store) lookup(name string) (*schema.Table, int, error) {
	t, idx := s.snap.Table(name)
	if t == nil {
		return nil, -1, tableNotFound(name)
	}
	return t, idx, nil
}

func (s *Store) exists(name string) bool {
	t, _ := s.snap.Table(name)
	return t != nil
}

func (s *Store) add(t *schema.Table) {
	s.snap.Tables = append(s.snap.Tables, t)
}

func (s *Store) remove(idx int) {
	s.snap.Tables = append(s.snap.Tables[:idx:idx], s.snap.Tables[idx+1:]...)
}

func (s *Store) put(idx int, t *schema.Table) {
	s.snap.Tables[idx] = t
}
