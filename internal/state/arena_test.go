package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitties/internal/kitty"
)

// seedArena commits two created records owned by alice.
func seedArena(t *testing.T, a *Arena) {
	t.Helper()
	ctx := context.Background()

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	for id := kitty.ID(0); id < 2; id++ {
		require.NoError(t, tx.InsertRecord(ctx, testRecord(id)))
		require.NoError(t, tx.SetOwner(ctx, id, "alice"))
	}
	require.NoError(t, tx.SetNextID(ctx, 2))
	require.NoError(t, tx.Commit())
}

func TestArena_CommitVisible(t *testing.T) {
	ctx := context.Background()
	a := NewArena()
	seedArena(t, a)

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	next, err := tx.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, kitty.ID(2), next)

	recs, err := tx.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, kitty.ID(0), recs[0].ID)

	owner, ok, err := tx.Owner(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, kitty.Principal("alice"), owner)

	require.NoError(t, CheckInvariants(ctx, tx))
}

func TestArena_RollbackRestoresEverything(t *testing.T) {
	ctx := context.Background()
	a := NewArena()
	seedArena(t, a)

	entry, err := kitty.NewJournalEntry(1, "t", kitty.RecordListed{Owner: "alice", ID: 0})
	require.NoError(t, err)

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertRecord(ctx, testRecord(2)))
	require.NoError(t, tx.InsertLineage(ctx, 2, kitty.Lineage{Parent1: 0, Parent2: 1}))
	require.NoError(t, tx.SetOwner(ctx, 2, "alice"))
	require.NoError(t, tx.SetOwner(ctx, 0, "bob"))
	require.NoError(t, tx.InsertListing(ctx, 1))
	require.NoError(t, tx.SetNextID(ctx, 3))
	require.NoError(t, tx.AppendEvent(ctx, entry))
	require.NoError(t, tx.Rollback())

	tx, err = a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	next, _ := tx.NextID(ctx)
	assert.Equal(t, kitty.ID(2), next)

	_, ok, _ := tx.Record(ctx, 2)
	assert.False(t, ok)
	_, ok, _ = tx.Lineage(ctx, 2)
	assert.False(t, ok)
	_, ok, _ = tx.Owner(ctx, 2)
	assert.False(t, ok)

	owner, _, _ := tx.Owner(ctx, 0)
	assert.Equal(t, kitty.Principal("alice"), owner)

	listed, _ := tx.IsListed(ctx, 1)
	assert.False(t, listed)

	seq, _ := tx.LastSeq(ctx)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, CheckInvariants(ctx, tx))
}

func TestArena_RollbackRestoresDeletedListing(t *testing.T) {
	ctx := context.Background()
	a := NewArena()
	seedArena(t, a)

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertListing(ctx, 0))
	require.NoError(t, tx.Commit())

	tx, err = a.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteListing(ctx, 0))
	require.NoError(t, tx.DeleteListing(ctx, 0))
	require.NoError(t, tx.Rollback())

	tx, err = a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	listed, err := tx.IsListed(ctx, 0)
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestArena_DuplicateInsertRejected(t *testing.T) {
	ctx := context.Background()
	a := NewArena()
	seedArena(t, a)

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	require.ErrorIs(t, tx.InsertRecord(ctx, testRecord(0)), kitty.ErrDuplicateIdentifier)
	require.NoError(t, tx.InsertListing(ctx, 0))
	require.ErrorIs(t, tx.InsertListing(ctx, 0), kitty.ErrAlreadyListed)
}

func TestArena_FinishedTx(t *testing.T) {
	ctx := context.Background()
	a := NewArena()

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.ErrorIs(t, tx.Commit(), ErrTxDone)
	require.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
	_, err = tx.NextID(ctx)
	require.ErrorIs(t, err, ErrTxDone)
}

func TestArena_JournalPaging(t *testing.T) {
	ctx := context.Background()
	a := NewArena()

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	for seq := int64(1); seq <= 5; seq++ {
		entry, err := kitty.NewJournalEntry(seq, "t", kitty.RecordListed{Owner: "alice", ID: kitty.ID(seq)})
		require.NoError(t, err)
		require.NoError(t, tx.AppendEvent(ctx, entry))
	}
	require.NoError(t, tx.Commit())

	tx, err = a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	entries, err := tx.Journal(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].Seq)
	assert.Equal(t, int64(4), entries[1].Seq)

	all, err := tx.Journal(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	last, err := tx.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)
}

func TestArena_BeginCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewArena().Begin(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckInvariants_DetectsMissingOwner(t *testing.T) {
	ctx := context.Background()
	a := NewArena()

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, tx.InsertRecord(ctx, testRecord(0)))
	require.NoError(t, tx.SetNextID(ctx, 1))

	require.Error(t, CheckInvariants(ctx, tx))
}
