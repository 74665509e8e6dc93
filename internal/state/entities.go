package state

import (
	"maps"
	"slices"

	"github.com/roach88/kitties/internal/kitty"
)

// EntityStore maps identifiers to immutable records.
type EntityStore struct {
	records map[kitty.ID]kitty.Record
}

// NewEntityStore creates an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{records: make(map[kitty.ID]kitty.Record)}
}

// Create inserts rec. Fails with DUPLICATE_IDENTIFIER if rec.ID is present.
func (s *EntityStore) Create(rec kitty.Record) error {
	if _, ok := s.records[rec.ID]; ok {
		return kitty.ErrDuplicateIdentifier.WithID(rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Get returns the record for id.
func (s *EntityStore) Get(id kitty.ID) (kitty.Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// IDs returns every identifier in ascending order.
func (s *EntityStore) IDs() []kitty.ID {
	return slices.Sorted(maps.Keys(s.records))
}

// discard undoes an uncommitted Create.
func (s *EntityStore) discard(id kitty.ID) {
	delete(s.records, id)
}

// LineageLedger maps bred identifiers to their parents.
type LineageLedger struct {
	parents map[kitty.ID]kitty.Lineage
}

// NewLineageLedger creates an empty ledger.
func NewLineageLedger() *LineageLedger {
	return &LineageLedger{parents: make(map[kitty.ID]kitty.Lineage)}
}

// Record stores the parent pair for id. A bred identifier is recorded once.
func (l *LineageLedger) Record(id kitty.ID, lin kitty.Lineage) error {
	if _, ok := l.parents[id]; ok {
		return kitty.ErrDuplicateIdentifier.WithID(id)
	}
	l.parents[id] = lin
	return nil
}

// Get returns the parents of id. Records created directly have none.
func (l *LineageLedger) Get(id kitty.ID) (kitty.Lineage, bool) {
	lin, ok := l.parents[id]
	return lin, ok
}

func (l *LineageLedger) discard(id kitty.ID) {
	delete(l.parents, id)
}
