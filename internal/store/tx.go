package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/migration"
	"github.com/roach88/kitties/internal/state"
)

// sqlTx implements state.Tx over one database transaction.
type sqlTx struct {
	tx *sql.Tx
}

var _ state.Tx = (*sqlTx)(nil)

// isPrimaryKeyConflict reports whether err is a PRIMARY KEY or UNIQUE violation.
func isPrimaryKeyConflict(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (t *sqlTx) NextID(ctx context.Context) (kitty.ID, error) {
	var next int64
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'next_id'`).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read next_id: %w", err)
	}
	return kitty.ID(next), nil
}

func (t *sqlTx) SetNextID(ctx context.Context, next kitty.ID) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('next_id', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, int64(next))
	if err != nil {
		return fmt.Errorf("write next_id: %w", err)
	}
	return nil
}

func (t *sqlTx) Record(ctx context.Context, id kitty.ID) (kitty.Record, bool, error) {
	var payload []byte
	err := t.tx.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, int64(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return kitty.Record{}, false, nil
	}
	if err != nil {
		return kitty.Record{}, false, fmt.Errorf("read record: %w", err)
	}
	rec, err := migration.DecodeV2(id, payload)
	if err != nil {
		return kitty.Record{}, false, fmt.Errorf("read record: %w", err)
	}
	return rec, true, nil
}

func (t *sqlTx) Records(ctx context.Context) ([]kitty.Record, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, payload FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	recs := []kitty.Record{}
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := migration.DecodeV2(kitty.ID(id), payload)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

func (t *sqlTx) InsertRecord(ctx context.Context, rec kitty.Record) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO records (id, payload) VALUES (?, ?)`,
		int64(rec.ID), migration.EncodeV2(rec))
	if isPrimaryKeyConflict(err) {
		return kitty.ErrDuplicateIdentifier.WithID(rec.ID)
	}
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (t *sqlTx) Owner(ctx context.Context, id kitty.ID) (kitty.Principal, bool, error) {
	var owner string
	err := t.tx.QueryRowContext(ctx, `SELECT owner FROM owners WHERE id = ?`, int64(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read owner: %w", err)
	}
	return kitty.Principal(owner), true, nil
}

func (t *sqlTx) SetOwner(ctx context.Context, id kitty.ID, owner kitty.Principal) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO owners (id, owner) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET owner = excluded.owner
	`, int64(id), string(owner))
	if err != nil {
		return fmt.Errorf("write owner: %w", err)
	}
	return nil
}

func (t *sqlTx) Lineage(ctx context.Context, id kitty.ID) (kitty.Lineage, bool, error) {
	var p1, p2 int64
	err := t.tx.QueryRowContext(ctx, `SELECT parent1, parent2 FROM lineage WHERE id = ?`, int64(id)).Scan(&p1, &p2)
	if errors.Is(err, sql.ErrNoRows) {
		return kitty.Lineage{}, false, nil
	}
	if err != nil {
		return kitty.Lineage{}, false, fmt.Errorf("read lineage: %w", err)
	}
	return kitty.Lineage{Parent1: kitty.ID(p1), Parent2: kitty.ID(p2)}, true, nil
}

func (t *sqlTx) InsertLineage(ctx context.Context, id kitty.ID, lin kitty.Lineage) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO lineage (id, parent1, parent2) VALUES (?, ?, ?)`,
		int64(id), int64(lin.Parent1), int64(lin.Parent2))
	if isPrimaryKeyConflict(err) {
		return kitty.ErrDuplicateIdentifier.WithID(id)
	}
	if err != nil {
		return fmt.Errorf("write lineage: %w", err)
	}
	return nil
}

func (t *sqlTx) IsListed(ctx context.Context, id kitty.ID) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ?`, int64(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read listing: %w", err)
	}
	return true, nil
}

func (t *sqlTx) InsertListing(ctx context.Context, id kitty.ID) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO listings (id) VALUES (?)`, int64(id))
	if isPrimaryKeyConflict(err) {
		return kitty.ErrAlreadyListed.WithID(id)
	}
	if err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	return nil
}

func (t *sqlTx) DeleteListing(ctx context.Context, id kitty.ID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

func (t *sqlTx) AppendEvent(ctx context.Context, e kitty.JournalEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (seq, token, kind, payload, digest)
		VALUES (?, ?, ?, ?, ?)
	`, e.Seq, e.Token, string(e.Kind), string(e.Payload), e.Digest)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (t *sqlTx) Journal(ctx context.Context, after int64, limit int) ([]kitty.JournalEntry, error) {
	// LIMIT -1 means no limit in SQLite.
	lim := int64(-1)
	if limit > 0 {
		lim = int64(limit)
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT seq, token, kind, payload, digest
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, after, lim)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []kitty.JournalEntry{}
	for rows.Next() {
		var (
			e       kitty.JournalEntry
			kind    string
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.Token, &kind, &payload, &e.Digest); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = kitty.EventKind(kind)
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return entries, nil
}

func (t *sqlTx) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}

func (t *sqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *sqlTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
