package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/kitties/internal/kitty"
)

// ErrFutureVersion is returned when the stored layout is newer than Current.
var ErrFutureVersion = errors.New("stored layout is newer than this build")

// Target is the storage a migration runs against. Implementations apply
// every call from one Migrate in a single transaction.
type Target interface {
	StoredVersion(ctx context.Context) (Version, error)
	Records(ctx context.Context) ([]RawRecord, error)

	// Replace overwrites each record's payload with its current-layout encoding.
	Replace(ctx context.Context, recs []kitty.Record) error
	SetVersion(ctx context.Context, v Version) error
}

// Weight counts storage accesses made by a migration.
type Weight struct {
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
}

// Report describes one Migrate call.
type Report struct {
	From    Version `json:"from"`
	To      Version `json:"to"`
	Records int     `json:"records"`
	Weight  Weight  `json:"weight"`
}

// Upgraded reports whether the call changed anything.
func (r Report) Upgraded() bool {
	return r.From != r.To
}

// Migrate brings t to Current. It is a no-op when t is already current.
func Migrate(ctx context.Context, t Target) (Report, error) {
	from, err := t.StoredVersion(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("migrate: read version: %w", err)
	}
	rep := Report{From: from, To: from, Weight: Weight{Reads: 1}}

	var decode func(RawRecord) (kitty.Record, error)
	switch from {
	case V0:
		decode = decodeV0
	case V1:
		decode = decodeV1
	case V2:
		return rep, nil
	default:
		if from > Current {
			return rep, fmt.Errorf("migrate: %w: stored %s, current %s", ErrFutureVersion, from, Current)
		}
		return rep, fmt.Errorf("migrate: unknown layout %s", from)
	}

	raws, err := t.Records(ctx)
	if err != nil {
		return rep, fmt.Errorf("migrate: read records: %w", err)
	}
	rep.Weight.Reads += uint64(len(raws))

	recs := make([]kitty.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := decode(raw)
		if err != nil {
			return rep, fmt.Errorf("migrate %s to %s: %w", from, Current, err)
		}
		recs = append(recs, rec)
	}

	if err := t.Replace(ctx, recs); err != nil {
		return rep, fmt.Errorf("migrate: write records: %w", err)
	}
	if err := t.SetVersion(ctx, Current); err != nil {
		return rep, fmt.Errorf("migrate: write version: %w", err)
	}

	rep.To = Current
	rep.Records = len(recs)
	rep.Weight.Writes = uint64(len(recs)) + 1
	return rep, nil
}
