package genetics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/kitties/internal/kitty"
)

func fill(b byte) kitty.DNA {
	var d kitty.DNA
	for i := range d {
		d[i] = b
	}
	return d
}

func seed32() []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

func TestMix_LiteralVectors(t *testing.T) {
	tests := []struct {
		name      string
		p1, p2, s kitty.DNA
		want      kitty.DNA
	}{
		{name: "selector masks union", p1: fill(0xFF), p2: fill(0x00), s: fill(0x0F), want: fill(0x0F)},
		{name: "zero selector", p1: fill(0xFF), p2: fill(0xFF), s: fill(0x00), want: fill(0x00)},
		{name: "bit in either parent", p1: fill(0xA0), p2: fill(0x05), s: fill(0xFF), want: fill(0xA5)},
		{name: "bit in neither parent", p1: fill(0x0F), p2: fill(0x0F), s: fill(0xF0), want: fill(0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mix(tt.p1, tt.p2, tt.s))
		})
	}
}

func TestMix_Property_PerByteLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var p1, p2, s kitty.DNA
		copy(p1[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "p1"))
		copy(p2[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "p2"))
		copy(s[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "s"))

		child := Mix(p1, p2, s)
		for i := range child {
			if want := s[i] & (p1[i] | p2[i]); child[i] != want {
				t.Fatalf("byte %d: got %#x, want %#x", i, child[i], want)
			}
		}

		if Mix(p2, p1, s) != child {
			t.Fatalf("mix must be symmetric in the parents")
		}
	})
}

func TestMix_Property_ByteIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var p1, p2, s kitty.DNA
		copy(p1[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "p1"))
		copy(p2[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "p2"))
		copy(s[:], rapid.SliceOfN(rapid.Byte(), kitty.DNASize, kitty.DNASize).Draw(t, "s"))
		j := rapid.IntRange(0, kitty.DNASize-1).Draw(t, "j")
		v := rapid.Byte().Draw(t, "v")

		before := Mix(p1, p2, s)
		p1[j] = v
		after := Mix(p1, p2, s)

		for i := range before {
			if i != j && before[i] != after[i] {
				t.Fatalf("changing byte %d changed byte %d", j, i)
			}
		}
	})
}

func TestSelector_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		seed   []byte
		caller kitty.Principal
		disamb uint64
		want   string
	}{
		{name: "unkeyed", seed: nil, caller: "alice", disamb: 0, want: "24cc0bf4f4b7521e2715a8a509205bb7"},
		{name: "keyed", seed: seed32(), caller: "alice", disamb: 0, want: "18b87cae0ef01a41f926294098e7b16a"},
		{name: "disambiguator", seed: seed32(), caller: "alice", disamb: 1, want: "d5a2f52f9570cf2df976fb6cc8a24362"},
		{name: "caller", seed: seed32(), caller: "bob", disamb: 0, want: "ee90c0f5381fa321344b9dfc1f4d046d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Selector(tt.seed, tt.caller, tt.disamb)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSelector_Deterministic(t *testing.T) {
	a, err := Selector(seed32(), "alice", 42)
	require.NoError(t, err)
	b, err := Selector(seed32(), "alice", 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelector_CallerBoundary(t *testing.T) {
	// The length prefix keeps ("ab", d) and ("a", d') from sharing a message.
	a, err := Selector(nil, "ab", 0)
	require.NoError(t, err)
	b, err := Selector(nil, "a", 0x6200000000000000)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSelector_SeedTooLong(t *testing.T) {
	_, err := Selector(bytes.Repeat([]byte{1}, MaxSeedSize+1), "alice", 0)
	require.Error(t, err)

	_, err = Selector(bytes.Repeat([]byte{1}, MaxSeedSize), "alice", 0)
	require.NoError(t, err)
}
