// Package genetics derives record attribute payloads.
//
// Selector is a BLAKE2b-128 digest keyed by an external seed over the
// caller identity and a per-operation disambiguator. Mix combines two
// parent payloads under a selector mask.
package genetics

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/roach88/kitties/internal/kitty"
)

// MaxSeedSize is the largest seed BLAKE2b accepts as a key.
const MaxSeedSize = blake2b.Size

// Selector returns the 16-byte pseudo-random value for one operation.
//
// The hashed message is the caller's length as a big-endian uint32, the
// caller bytes, then the disambiguator as a big-endian uint64. Identical
// inputs always produce an identical selector.
func Selector(seed []byte, caller kitty.Principal, disambiguator uint64) (kitty.DNA, error) {
	var out kitty.DNA
	if len(seed) > MaxSeedSize {
		return out, fmt.Errorf("selector: seed is %d bytes, max %d", len(seed), MaxSeedSize)
	}
	h, err := blake2b.New(kitty.DNASize, seed)
	if err != nil {
		return out, fmt.Errorf("selector: %w", err)
	}

	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(len(caller)))
	h.Write(buf[:4])
	h.Write([]byte(caller))
	binary.BigEndian.PutUint64(buf[:], disambiguator)
	h.Write(buf[:])

	copy(out[:], h.Sum(nil))
	return out, nil
}

// Mix combines two parents under selector sel.
//
// Each child bit is set only when the selector bit is set and the bit is
// present in either parent: child[i] = sel[i] & (p1[i] | p2[i]).
// Byte i of the child depends on byte i of the inputs and nothing else.
func Mix(p1, p2, sel kitty.DNA) kitty.DNA {
	var child kitty.DNA
	for i := range child {
		child[i] = (p1[i] & sel[i]) | (p2[i] & sel[i])
	}
	return child
}
