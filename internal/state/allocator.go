package state

import "github.com/roach88/kitties/internal/kitty"

// Allocator issues identifiers from a checked counter.
//
// Allocate returns the current value and advances by one. Once the counter
// reaches the limit every call fails with IDENTIFIER_OVERFLOW and the counter
// stays where it is, so a failed allocation is never a state change.
type Allocator struct {
	next  kitty.ID
	limit kitty.ID
}

// NewAllocator creates an allocator resuming at next.
// limit is the first value that can never be issued.
func NewAllocator(next, limit kitty.ID) *Allocator {
	return &Allocator{next: next, limit: limit}
}

// Check reports whether one more identifier can be issued, without issuing it.
func (a *Allocator) Check() error {
	if a.next >= a.limit {
		return kitty.ErrIdentifierOverflow.WithID(a.next)
	}
	return nil
}

// Allocate returns the next identifier and advances the counter.
func (a *Allocator) Allocate() (kitty.ID, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	id := a.next
	a.next++
	return id, nil
}

// Next returns the identifier the next successful Allocate will return.
func (a *Allocator) Next() kitty.ID {
	return a.next
}
