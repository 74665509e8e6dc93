package kitty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "exact", input: "abcdefgh", want: "abcdefgh"},
		{name: "short is padded", input: "tom", want: "tom"},
		{name: "empty", input: "", want: ""},
		{name: "too long", input: "abcdefghi", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseName(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParseName_ZeroPads(t *testing.T) {
	n := MustName("ab")
	assert.Equal(t, Name{'a', 'b', 0, 0, 0, 0, 0, 0}, n)
}

func TestDNA_HexRoundTrip(t *testing.T) {
	d := DNA{0x00, 0x01, 0xfe, 0xff}
	parsed, err := ParseDNA(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
	assert.Equal(t, "0001feff000000000000000000000000", d.String())
}

func TestParseDNA_WrongLength(t *testing.T) {
	_, err := ParseDNA("00ff")
	require.Error(t, err)
}

func TestNewPrincipal(t *testing.T) {
	p, err := NewPrincipal("  alice ")
	require.NoError(t, err)
	assert.Equal(t, Principal("alice"), p)

	_, err = NewPrincipal("   ")
	require.ErrorIs(t, err, ErrInvalidPrincipal)

	// NFD "e" + combining acute normalizes to the single NFC code point.
	nfd, err := NewPrincipal("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, Principal("\u00e9"), nfd)
}
