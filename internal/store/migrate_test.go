package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitties/internal/migration"
	"github.com/roach88/kitties/internal/state"
)

// legacyStore creates a database holding two records under layout v.
func legacyStore(t *testing.T, v migration.Version, payloads [][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	s, err := Open(path, WithoutMigration())
	require.NoError(t, err)
	seedLegacy(t, s, v, payloads)
	require.NoError(t, s.Close())
	return path
}

func TestOpen_MigratesV0(t *testing.T) {
	ctx := context.Background()
	path := legacyStore(t, migration.V0, [][]byte{
		migration.EncodeV0(testDNA(1)),
		migration.EncodeV0(testDNA(2)),
	})

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.V2, v)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	recs, err := tx.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, testDNA(2), recs[1].DNA)
	assert.Equal(t, migration.DefaultName, recs[1].Name)
	require.NoError(t, state.CheckInvariants(ctx, tx))
}

func TestOpen_V0AndV1Converge(t *testing.T) {
	ctx := context.Background()
	v0 := legacyStore(t, migration.V0, [][]byte{migration.EncodeV0(testDNA(7))})
	v1 := legacyStore(t, migration.V1, [][]byte{migration.EncodeV1(testDNA(7), [4]byte{'a', 'b', 'c', 'd'})})

	read := func(path string) []byte {
		s, err := Open(path)
		require.NoError(t, err)
		defer s.Close()
		var payload []byte
		require.NoError(t, s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = 0`).Scan(&payload))
		return payload
	}

	assert.Equal(t, read(v0), read(v1))
}

func TestMigrate_SecondRunIsNoop(t *testing.T) {
	ctx := context.Background()
	path := legacyStore(t, migration.V1, [][]byte{migration.EncodeV1(testDNA(3), [4]byte{})})

	s, err := Open(path, WithoutMigration())
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.V1, first.From)
	assert.Equal(t, migration.V2, first.To)
	assert.Equal(t, 1, first.Records)

	second, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.False(t, second.Upgraded())
	assert.Equal(t, uint64(0), second.Weight.Writes)
}

func TestBegin_RequiresCurrentLayout(t *testing.T) {
	ctx := context.Background()
	path := legacyStore(t, migration.V0, [][]byte{migration.EncodeV0(testDNA(1))})

	s, err := Open(path, WithoutMigration())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Begin(ctx)
	require.ErrorIs(t, err, ErrNeedsMigration)

	_, err = s.Migrate(ctx)
	require.NoError(t, err)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestOpen_FutureVersionRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 3")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, migration.ErrFutureVersion)

	s, err = Open(path, WithoutMigration())
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, migration.Version(3), v)
}

func TestOpen_CorruptLegacyRecordLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	path := legacyStore(t, migration.V0, [][]byte{
		migration.EncodeV0(testDNA(1)),
		{1, 2, 3},
	})

	_, err := Open(path)
	require.ErrorIs(t, err, migration.ErrCorruptRecord)

	s, err := Open(path, WithoutMigration())
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.V0, v)

	var payload []byte
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = 0`).Scan(&payload))
	assert.Equal(t, migration.EncodeV0(testDNA(1)), payload, "no record rewritten")
}
