package kitty

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID is the unique, monotonically assigned key naming a record.
type ID uint32

// DNASize is the length of the attribute payload in bytes.
const DNASize = 16

// NameSize is the length of the display label in bytes.
const NameSize = 8

// DNA is the 16-byte attribute payload of a record.
type DNA [DNASize]byte

// String returns the payload as lowercase hex.
func (d DNA) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDNA decodes a 32-character hex string.
func ParseDNA(s string) (DNA, error) {
	var d DNA
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parse dna: %w", err)
	}
	if len(b) != DNASize {
		return d, fmt.Errorf("parse dna: want %d bytes, got %d", DNASize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Name is the fixed 8-byte display label of a record.
type Name [NameSize]byte

// ParseName converts s into a Name, zero-padding on the right.
// Names longer than NameSize bytes are rejected.
func ParseName(s string) (Name, error) {
	var n Name
	if len(s) > NameSize {
		return n, fmt.Errorf("%w: %q is %d bytes, max %d", ErrInvalidName, s, len(s), NameSize)
	}
	copy(n[:], s)
	return n, nil
}

// MustName is like ParseName but panics on error.
// Use only in tests or with literal names.
func MustName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the label with trailing zero padding removed.
func (n Name) String() string {
	return strings.TrimRight(string(n[:]), "\x00")
}

// Principal is an already-authenticated caller identity.
type Principal string

// NewPrincipal normalizes s to NFC and rejects empty identities.
func NewPrincipal(s string) (Principal, error) {
	p := norm.NFC.String(strings.TrimSpace(s))
	if p == "" {
		return "", fmt.Errorf("%w: principal must not be empty", ErrInvalidPrincipal)
	}
	return Principal(p), nil
}

// Balance is an amount of the fungible currency handled by the funds collaborator.
type Balance uint64

// Record is an immutable minted entity.
type Record struct {
	ID   ID
	DNA  DNA
	Name Name
}

// Lineage is the recorded parent pair for a bred record.
type Lineage struct {
	Parent1 ID
	Parent2 ID
}
