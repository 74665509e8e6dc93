package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/migration"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDNA(b byte) kitty.DNA {
	var d kitty.DNA
	for i := range d {
		d[i] = b ^ byte(i)
	}
	return d
}

// seedLegacy writes raw payloads and owners under the given layout version,
// bypassing the layout check. The store must have been opened WithoutMigration.
func seedLegacy(t *testing.T, s *Store, v migration.Version, payloads [][]byte) {
	t.Helper()
	ctx := context.Background()
	for i, p := range payloads {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO records (id, payload) VALUES (?, ?)`, i, p); err != nil {
			t.Fatalf("seed record: %v", err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO owners (id, owner) VALUES (?, 'alice')`, i); err != nil {
			t.Fatalf("seed owner: %v", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('next_id', ?)`, len(payloads)); err != nil {
		t.Fatalf("seed next_id: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", int(v))); err != nil {
		t.Fatalf("seed version: %v", err)
	}
}
