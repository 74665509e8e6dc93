// Package entropy provides seed sources for trait generation.
//
// It uses crypto/rand for production seeds and a fixed source for
// deterministic runs and tests.
package entropy

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// DefaultSeedSize is the number of bytes System returns.
const DefaultSeedSize = 32

// System reads fresh seeds from crypto/rand.
type System struct {
	// Size defaults to DefaultSeedSize.
	Size int

	// Reader overrides crypto/rand; tests only.
	Reader io.Reader
}

// Seed returns a new random seed.
func (s System) Seed(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := s.Size
	if size <= 0 {
		size = DefaultSeedSize
	}
	r := s.Reader
	if r == nil {
		r = crand.Reader
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return b, nil
}

// Fixed returns the same seed on every call.
type Fixed []byte

// Seed returns a copy of the fixed seed.
func (f Fixed) Seed(ctx context.Context) ([]byte, error) {
	return append([]byte(nil), f...), nil
}

// ParseFixed decodes a hex seed.
func ParseFixed(s string) (Fixed, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return Fixed(b), nil
}
