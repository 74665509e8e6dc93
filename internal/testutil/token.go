package testutil

import (
	"encoding/hex"
	"fmt"
)

// FixedTokenGenerator returns the same operation token every time, so all
// journal entries of one scenario share it.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator for token.
// If token is empty, Generate returns "test-token-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-token-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}

// CountingSeed returns the n-byte seed 00 01 02 ... used when a scenario
// names no seed.
func CountingSeed(n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

// MustHex decodes s or panics. Test fixtures only.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad hex %q: %v", s, err))
	}
	return b
}
