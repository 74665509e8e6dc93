package state

import "github.com/roach88/kitties/internal/kitty"

// Listings is the set of identifiers currently offered for sale.
type Listings struct {
	listed map[kitty.ID]struct{}
}

// NewListings creates an empty set.
func NewListings() *Listings {
	return &Listings{listed: make(map[kitty.ID]struct{})}
}

// IsListed reports whether id is offered for sale.
func (l *Listings) IsListed(id kitty.ID) bool {
	_, ok := l.listed[id]
	return ok
}

// List adds id. Fails with ALREADY_LISTED if present.
func (l *Listings) List(id kitty.ID) error {
	if l.IsListed(id) {
		return kitty.ErrAlreadyListed.WithID(id)
	}
	l.listed[id] = struct{}{}
	return nil
}

// Unlist removes id. Removing an absent id is a no-op.
func (l *Listings) Unlist(id kitty.ID) {
	delete(l.listed, id)
}
