package state

import (
	"context"
	"fmt"

	"github.com/roach88/kitties/internal/kitty"
)

// CheckInvariants verifies the cross-ledger invariants over r:
// identifiers below the counter are exactly the stored records, each record
// has an owner, each lineage names earlier records, and the slot at the
// counter is empty in every ledger.
func CheckInvariants(ctx context.Context, r Reader) error {
	next, err := r.NextID(ctx)
	if err != nil {
		return fmt.Errorf("check invariants: %w", err)
	}
	recs, err := r.Records(ctx)
	if err != nil {
		return fmt.Errorf("check invariants: %w", err)
	}
	if uint64(len(recs)) != uint64(next) {
		return fmt.Errorf("check invariants: %d records but counter at %d", len(recs), next)
	}
	for i, rec := range recs {
		if rec.ID != kitty.ID(i) {
			return fmt.Errorf("check invariants: record %d at position %d", rec.ID, i)
		}
		if _, ok, err := r.Owner(ctx, rec.ID); err != nil {
			return fmt.Errorf("check invariants: %w", err)
		} else if !ok {
			return fmt.Errorf("check invariants: record %d has no owner", rec.ID)
		}
		lin, ok, err := r.Lineage(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("check invariants: %w", err)
		}
		if ok && (lin.Parent1 >= rec.ID || lin.Parent2 >= rec.ID || lin.Parent1 == lin.Parent2) {
			return fmt.Errorf("check invariants: record %d has invalid lineage %+v", rec.ID, lin)
		}
	}

	if _, ok, err := r.Owner(ctx, next); err != nil {
		return fmt.Errorf("check invariants: %w", err)
	} else if ok {
		return fmt.Errorf("check invariants: owner recorded for unallocated id %d", next)
	}
	if listed, err := r.IsListed(ctx, next); err != nil {
		return fmt.Errorf("check invariants: %w", err)
	} else if listed {
		return fmt.Errorf("check invariants: listing for unallocated id %d", next)
	}
	return nil
}
