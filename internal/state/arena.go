package state

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/kitties/internal/kitty"
)

// ErrTxDone is returned when a finished transaction is used.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// Arena is the in-memory Backend: every ledger plus the identifier
// counter and the event journal, guarded by one lock.
//
// Begin takes the lock and the transaction holds it until Commit or
// Rollback. Writes apply in place and record an undo step, so Rollback
// restores the exact prior state and no reader ever sees a partial change.
type Arena struct {
	mu sync.Mutex

	nextID   kitty.ID
	records  *EntityStore
	lineage  *LineageLedger
	owners   *OwnershipLedger
	listings *Listings
	journal  []kitty.JournalEntry
}

// NewArena creates an empty arena with the counter at 0.
func NewArena() *Arena {
	return &Arena{
		records:  NewEntityStore(),
		lineage:  NewLineageLedger(),
		owners:   NewOwnershipLedger(),
		listings: NewListings(),
	}
}

// Begin locks the arena and opens a transaction.
func (a *Arena) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	return &arenaTx{a: a}, nil
}

// arenaTx mutates the arena directly and keeps undo steps for Rollback.
type arenaTx struct {
	a    *Arena
	undo []func()
	done bool
}

func (t *arenaTx) check() error {
	if t.done {
		return ErrTxDone
	}
	return nil
}

func (t *arenaTx) NextID(ctx context.Context) (kitty.ID, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.a.nextID, nil
}

func (t *arenaTx) Record(ctx context.Context, id kitty.ID) (kitty.Record, bool, error) {
	if err := t.check(); err != nil {
		return kitty.Record{}, false, err
	}
	rec, ok := t.a.records.Get(id)
	return rec, ok, nil
}

func (t *arenaTx) Owner(ctx context.Context, id kitty.ID) (kitty.Principal, bool, error) {
	if err := t.check(); err != nil {
		return "", false, err
	}
	p, ok := t.a.owners.OwnerOf(id)
	return p, ok, nil
}

func (t *arenaTx) Lineage(ctx context.Context, id kitty.ID) (kitty.Lineage, bool, error) {
	if err := t.check(); err != nil {
		return kitty.Lineage{}, false, err
	}
	lin, ok := t.a.lineage.Get(id)
	return lin, ok, nil
}

func (t *arenaTx) IsListed(ctx context.Context, id kitty.ID) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	return t.a.listings.IsListed(id), nil
}

func (t *arenaTx) Records(ctx context.Context) ([]kitty.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	ids := t.a.records.IDs()
	out := make([]kitty.Record, 0, len(ids))
	for _, id := range ids {
		rec, _ := t.a.records.Get(id)
		out = append(out, rec)
	}
	return out, nil
}

func (t *arenaTx) Journal(ctx context.Context, after int64, limit int) ([]kitty.JournalEntry, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []kitty.JournalEntry
	for _, e := range t.a.journal {
		if e.Seq <= after {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *arenaTx) LastSeq(ctx context.Context) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if len(t.a.journal) == 0 {
		return 0, nil
	}
	return t.a.journal[len(t.a.journal)-1].Seq, nil
}

func (t *arenaTx) SetNextID(ctx context.Context, next kitty.ID) error {
	if err := t.check(); err != nil {
		return err
	}
	prev := t.a.nextID
	t.a.nextID = next
	t.undo = append(t.undo, func() { t.a.nextID = prev })
	return nil
}

func (t *arenaTx) InsertRecord(ctx context.Context, rec kitty.Record) error {
	if err := t.check(); err != nil {
		return err
	}
	if err := t.a.records.Create(rec); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.a.records.discard(rec.ID) })
	return nil
}

func (t *arenaTx) InsertLineage(ctx context.Context, id kitty.ID, lin kitty.Lineage) error {
	if err := t.check(); err != nil {
		return err
	}
	if err := t.a.lineage.Record(id, lin); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.a.lineage.discard(id) })
	return nil
}

func (t *arenaTx) SetOwner(ctx context.Context, id kitty.ID, owner kitty.Principal) error {
	if err := t.check(); err != nil {
		return err
	}
	prev, existed := t.a.owners.OwnerOf(id)
	t.a.owners.SetOwner(id, owner)
	t.undo = append(t.undo, func() { t.a.owners.restore(id, prev, existed) })
	return nil
}

func (t *arenaTx) InsertListing(ctx context.Context, id kitty.ID) error {
	if err := t.check(); err != nil {
		return err
	}
	if err := t.a.listings.List(id); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.a.listings.Unlist(id) })
	return nil
}

func (t *arenaTx) DeleteListing(ctx context.Context, id kitty.ID) error {
	if err := t.check(); err != nil {
		return err
	}
	if !t.a.listings.IsListed(id) {
		return nil
	}
	t.a.listings.Unlist(id)
	t.undo = append(t.undo, func() { _ = t.a.listings.List(id) })
	return nil
}

func (t *arenaTx) AppendEvent(ctx context.Context, entry kitty.JournalEntry) error {
	if err := t.check(); err != nil {
		return err
	}
	n := len(t.a.journal)
	t.a.journal = append(t.a.journal, entry)
	t.undo = append(t.undo, func() { t.a.journal = t.a.journal[:n] })
	return nil
}

func (t *arenaTx) Commit() error {
	if err := t.check(); err != nil {
		return err
	}
	t.done = true
	t.undo = nil
	t.a.mu.Unlock()
	return nil
}

func (t *arenaTx) Rollback() error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.a.mu.Unlock()
	return nil
}
