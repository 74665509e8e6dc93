package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/migration"
)

// Migrate brings the stored record layout to migration.Current in one
// transaction. Running it on a current store reads the version and
// returns without writing.
func (s *Store) Migrate(ctx context.Context) (migration.Report, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return migration.Report{}, fmt.Errorf("migrate: begin: %w", err)
	}
	defer tx.Rollback()

	rep, err := migration.Migrate(ctx, &migrationTarget{tx: tx})
	if err != nil {
		return rep, err
	}
	if err := tx.Commit(); err != nil {
		return rep, fmt.Errorf("migrate: commit: %w", err)
	}
	return rep, nil
}

// migrationTarget exposes the records table to the migration engine.
type migrationTarget struct {
	tx *sql.Tx
}

func (t *migrationTarget) StoredVersion(ctx context.Context) (migration.Version, error) {
	return readVersion(ctx, t.tx)
}

func (t *migrationTarget) Records(ctx context.Context) ([]migration.RawRecord, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, payload FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []migration.RawRecord
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, migration.RawRecord{ID: kitty.ID(id), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (t *migrationTarget) Replace(ctx context.Context, recs []kitty.Record) error {
	stmt, err := t.tx.PrepareContext(ctx, `UPDATE records SET payload = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare replace: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, migration.EncodeV2(rec), int64(rec.ID)); err != nil {
			return fmt.Errorf("replace record %d: %w", rec.ID, err)
		}
	}
	return nil
}

// SetVersion writes user_version inside the migration transaction, so a
// rollback also restores the old marker.
func (t *migrationTarget) SetVersion(ctx context.Context, v migration.Version) error {
	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", int(v))); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
