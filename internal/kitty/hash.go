package kitty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainJournal prefixes journal digests.
// The version suffix leaves room for a future algorithm migration.
const DomainJournal = "kitties/event/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// JournalEntry is one committed event as persisted by a backend.
type JournalEntry struct {
	Seq     int64
	Token   string
	Kind    EventKind
	Payload []byte // canonical JSON of Event.Fields()
	Digest  string
}

// NewJournalEntry encodes ev and computes its digest.
func NewJournalEntry(seq int64, token string, ev Event) (JournalEntry, error) {
	payload, err := MarshalCanonical(ev.Fields())
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal entry: %w", err)
	}
	entry := JournalEntry{
		Seq:     seq,
		Token:   token,
		Kind:    ev.Kind(),
		Payload: payload,
	}
	entry.Digest, err = entry.computeDigest()
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// Verify recomputes the digest and reports whether it matches.
func (e JournalEntry) Verify() (bool, error) {
	d, err := e.computeDigest()
	if err != nil {
		return false, err
	}
	return d == e.Digest, nil
}

// Event decodes the entry payload.
func (e JournalEntry) Event() (Event, error) {
	return DecodeEvent(e.Kind, e.Payload)
}

func (e JournalEntry) computeDigest() (string, error) {
	payload, err := UnmarshalObject(e.Payload)
	if err != nil {
		return "", fmt.Errorf("journal digest: %w", err)
	}
	canonical, err := MarshalCanonical(map[string]any{
		"seq":     e.Seq,
		"token":   e.Token,
		"kind":    e.Kind,
		"payload": payload,
	})
	if err != nil {
		return "", fmt.Errorf("journal digest: %w", err)
	}
	return hashWithDomain(DomainJournal, canonical), nil
}
