package state

import (
	"context"

	"github.com/roach88/kitties/internal/kitty"
)

// Reader is the read side of the persisted layout.
type Reader interface {
	// NextID returns the persisted identifier counter.
	NextID(ctx context.Context) (kitty.ID, error)
	Record(ctx context.Context, id kitty.ID) (kitty.Record, bool, error)
	Owner(ctx context.Context, id kitty.ID) (kitty.Principal, bool, error)
	Lineage(ctx context.Context, id kitty.ID) (kitty.Lineage, bool, error)
	IsListed(ctx context.Context, id kitty.ID) (bool, error)

	// Records returns every record in ascending identifier order.
	Records(ctx context.Context) ([]kitty.Record, error)

	// Journal returns entries with Seq > after, oldest first.
	// limit <= 0 means no limit.
	Journal(ctx context.Context, after int64, limit int) ([]kitty.JournalEntry, error)

	// LastSeq returns the highest journaled sequence, or 0.
	LastSeq(ctx context.Context) (int64, error)
}

// Tx is one atomic unit of change. Nothing written through a Tx is visible
// to other readers until Commit; Rollback discards every write.
type Tx interface {
	Reader

	SetNextID(ctx context.Context, next kitty.ID) error

	// InsertRecord fails with DUPLICATE_IDENTIFIER if the id is present.
	InsertRecord(ctx context.Context, rec kitty.Record) error
	InsertLineage(ctx context.Context, id kitty.ID, lin kitty.Lineage) error
	SetOwner(ctx context.Context, id kitty.ID, owner kitty.Principal) error

	// InsertListing fails with ALREADY_LISTED if the id is listed.
	InsertListing(ctx context.Context, id kitty.ID) error

	// DeleteListing is idempotent.
	DeleteListing(ctx context.Context, id kitty.ID) error

	AppendEvent(ctx context.Context, entry kitty.JournalEntry) error

	Commit() error

	// Rollback is safe to call after Commit, where it is a no-op.
	Rollback() error
}

// Backend opens transactions. At most one Tx is open at a time.
type Backend interface {
	Begin(ctx context.Context) (Tx, error)
}
