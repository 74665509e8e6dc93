package state

import "github.com/roach88/kitties/internal/kitty"

// OwnershipLedger maps identifiers to their current owner.
type OwnershipLedger struct {
	owners map[kitty.ID]kitty.Principal
}

// NewOwnershipLedger creates an empty ledger.
func NewOwnershipLedger() *OwnershipLedger {
	return &OwnershipLedger{owners: make(map[kitty.ID]kitty.Principal)}
}

// OwnerOf returns the owner of id.
func (o *OwnershipLedger) OwnerOf(id kitty.ID) (kitty.Principal, bool) {
	p, ok := o.owners[id]
	return p, ok
}

// SetOwner unconditionally overwrites the owner of id.
// Callers verify the current owner first, except at creation.
func (o *OwnershipLedger) SetOwner(id kitty.ID, p kitty.Principal) {
	o.owners[id] = p
}

// restore puts back the owner seen before an uncommitted SetOwner.
func (o *OwnershipLedger) restore(id kitty.ID, p kitty.Principal, existed bool) {
	if !existed {
		delete(o.owners, id)
		return
	}
	o.owners[id] = p
}
