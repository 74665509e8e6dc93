package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/state"
)

// ErrJournalTampered is returned by VerifyJournal when an entry's digest
// does not match its contents.
var ErrJournalTampered = errors.New("journal entry digest mismatch")

// Entry is a record with its ledger state.
type Entry struct {
	Record  kitty.Record
	Owner   kitty.Principal
	Listed  bool
	Lineage *kitty.Lineage
}

// NextID returns the identifier the next create or breed will receive.
func (r *Registry) NextID(ctx context.Context) (kitty.ID, error) {
	var next kitty.ID
	err := r.read(ctx, func(tx state.Reader) error {
		var err error
		next, err = tx.NextID(ctx)
		return err
	})
	return next, err
}

// Record returns the record for id.
func (r *Registry) Record(ctx context.Context, id kitty.ID) (kitty.Record, error) {
	var rec kitty.Record
	err := r.read(ctx, func(tx state.Reader) error {
		var err error
		rec, err = r.mustRecord(ctx, tx, id)
		return err
	})
	return rec, err
}

// Owner returns the current owner of id.
func (r *Registry) Owner(ctx context.Context, id kitty.ID) (kitty.Principal, error) {
	e, err := r.Entry(ctx, id)
	return e.Owner, err
}

// Lineage returns the parents of id. ok is false for created records.
func (r *Registry) Lineage(ctx context.Context, id kitty.ID) (lin kitty.Lineage, ok bool, err error) {
	e, err := r.Entry(ctx, id)
	if err != nil || e.Lineage == nil {
		return kitty.Lineage{}, false, err
	}
	return *e.Lineage, true, nil
}

// IsListed reports whether id is offered for sale.
func (r *Registry) IsListed(ctx context.Context, id kitty.ID) (bool, error) {
	e, err := r.Entry(ctx, id)
	return e.Listed, err
}

// Entry returns id with its owner, listing state and lineage.
func (r *Registry) Entry(ctx context.Context, id kitty.ID) (Entry, error) {
	var e Entry
	err := r.read(ctx, func(tx state.Reader) error {
		rec, err := r.mustRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		e, err = entryOf(ctx, tx, rec)
		return err
	})
	return e, err
}

// Records returns every record in ascending identifier order.
func (r *Registry) Records(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := r.read(ctx, func(tx state.Reader) error {
		recs, err := tx.Records(ctx)
		if err != nil {
			return fmt.Errorf("read records: %w", err)
		}
		out = make([]Entry, 0, len(recs))
		for _, rec := range recs {
			e, err := entryOf(ctx, tx, rec)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Journal returns journaled events with Seq > after, oldest first.
// limit <= 0 returns all of them.
func (r *Registry) Journal(ctx context.Context, after int64, limit int) ([]kitty.JournalEntry, error) {
	var entries []kitty.JournalEntry
	err := r.read(ctx, func(tx state.Reader) error {
		var err error
		entries, err = tx.Journal(ctx, after, limit)
		return err
	})
	return entries, err
}

// VerifyJournal recomputes every journal digest and returns how many
// entries were checked. The first mismatch fails with ErrJournalTampered.
func (r *Registry) VerifyJournal(ctx context.Context) (int, error) {
	entries, err := r.Journal(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		ok, err := e.Verify()
		if err != nil {
			return i, fmt.Errorf("verify seq %d: %w", e.Seq, err)
		}
		if !ok {
			return i, fmt.Errorf("%w: seq %d", ErrJournalTampered, e.Seq)
		}
	}
	return len(entries), nil
}

// CheckInvariants verifies the cross-ledger invariants of the current state.
func (r *Registry) CheckInvariants(ctx context.Context) error {
	return r.read(ctx, func(tx state.Reader) error {
		return state.CheckInvariants(ctx, tx)
	})
}

// read runs fn under the registry lock in a rolled-back transaction.
func (r *Registry) read(ctx context.Context, fn func(state.Reader) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(ctx, fn)
}

func entryOf(ctx context.Context, tx state.Reader, rec kitty.Record) (Entry, error) {
	e := Entry{Record: rec}
	owner, _, err := tx.Owner(ctx, rec.ID)
	if err != nil {
		return e, fmt.Errorf("read owner: %w", err)
	}
	e.Owner = owner
	if e.Listed, err = tx.IsListed(ctx, rec.ID); err != nil {
		return e, fmt.Errorf("read listing: %w", err)
	}
	lin, ok, err := tx.Lineage(ctx, rec.ID)
	if err != nil {
		return e, fmt.Errorf("read lineage: %w", err)
	}
	if ok {
		e.Lineage = &lin
	}
	return e, nil
}
