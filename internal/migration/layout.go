package migration

import (
	"errors"
	"fmt"

	"github.com/roach88/kitties/internal/kitty"
)

// Version identifies a stored record layout.
type Version int

const (
	V0 Version = iota
	V1
	V2

	// Current is the layout this code reads and writes.
	Current = V2
)

func (v Version) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// DefaultName is written into every migrated record.
var DefaultName = kitty.MustName("abcdefgh")

const (
	sizeV0      = kitty.DNASize
	v1LabelSize = 4
	sizeV1      = kitty.DNASize + v1LabelSize
	sizeV2      = kitty.DNASize + kitty.NameSize
)

// ErrCorruptRecord is returned when a payload does not match its layout.
var ErrCorruptRecord = errors.New("corrupt record payload")

// RawRecord is a stored payload not yet decoded.
type RawRecord struct {
	ID      kitty.ID
	Payload []byte
}

// EncodeV2 returns the current-layout payload for rec.
func EncodeV2(rec kitty.Record) []byte {
	out := make([]byte, 0, sizeV2)
	out = append(out, rec.DNA[:]...)
	out = append(out, rec.Name[:]...)
	return out
}

// DecodeV2 decodes a current-layout payload.
func DecodeV2(id kitty.ID, payload []byte) (kitty.Record, error) {
	if len(payload) != sizeV2 {
		return kitty.Record{}, corrupt(V2, id, len(payload), sizeV2)
	}
	rec := kitty.Record{ID: id}
	copy(rec.DNA[:], payload[:kitty.DNASize])
	copy(rec.Name[:], payload[kitty.DNASize:])
	return rec, nil
}

// EncodeV0 returns a v0 payload. Only used to seed legacy stores.
func EncodeV0(dna kitty.DNA) []byte {
	return append([]byte(nil), dna[:]...)
}

// EncodeV1 returns a v1 payload. Only used to seed legacy stores.
func EncodeV1(dna kitty.DNA, label [v1LabelSize]byte) []byte {
	out := make([]byte, 0, sizeV1)
	out = append(out, dna[:]...)
	return append(out, label[:]...)
}

func decodeV0(raw RawRecord) (kitty.Record, error) {
	if len(raw.Payload) != sizeV0 {
		return kitty.Record{}, corrupt(V0, raw.ID, len(raw.Payload), sizeV0)
	}
	rec := kitty.Record{ID: raw.ID, Name: DefaultName}
	copy(rec.DNA[:], raw.Payload)
	return rec, nil
}

// decodeV1 drops the old 4-byte label.
func decodeV1(raw RawRecord) (kitty.Record, error) {
	if len(raw.Payload) != sizeV1 {
		return kitty.Record{}, corrupt(V1, raw.ID, len(raw.Payload), sizeV1)
	}
	rec := kitty.Record{ID: raw.ID, Name: DefaultName}
	copy(rec.DNA[:], raw.Payload[:kitty.DNASize])
	return rec, nil
}

func corrupt(v Version, id kitty.ID, got, want int) error {
	return fmt.Errorf("%w: record %d is %d bytes, %s wants %d", ErrCorruptRecord, id, got, v, want)
}
