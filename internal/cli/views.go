package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/registry"
)

// RecordView is the printed form of a record.
type RecordView struct {
	ID      uint32   `json:"id"`
	DNA     string   `json:"dna"`
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Listed  bool     `json:"listed"`
	Parents []uint32 `json:"parents,omitempty"`
}

func viewOf(e registry.Entry) RecordView {
	v := RecordView{
		ID:     uint32(e.Record.ID),
		DNA:    e.Record.DNA.String(),
		Name:   e.Record.Name.String(),
		Owner:  string(e.Owner),
		Listed: e.Listed,
	}
	if e.Lineage != nil {
		v.Parents = []uint32{uint32(e.Lineage.Parent1), uint32(e.Lineage.Parent2)}
	}
	return v
}

func (v RecordView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %-8s dna=%s owner=%s", v.ID, v.Name, v.DNA, v.Owner)
	if v.Listed {
		b.WriteString(" listed")
	}
	if len(v.Parents) == 2 {
		fmt.Fprintf(&b, " parents=%d,%d", v.Parents[0], v.Parents[1])
	}
	return b.String()
}

// RecordList prints one record per line.
type RecordList []RecordView

func (l RecordList) String() string {
	if len(l) == 0 {
		return "no records"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// JournalView is the printed form of a journal entry.
type JournalView struct {
	Seq     int64           `json:"seq"`
	Token   string          `json:"token"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Digest  string          `json:"digest"`
}

// JournalList prints one entry per line.
type JournalList []JournalView

func journalViews(entries []kitty.JournalEntry) JournalList {
	out := make(JournalList, len(entries))
	for i, e := range entries {
		out[i] = JournalView{
			Seq:     e.Seq,
			Token:   e.Token,
			Kind:    string(e.Kind),
			Payload: json.RawMessage(e.Payload),
			Digest:  e.Digest,
		}
	}
	return out
}

func (l JournalList) String() string {
	if len(l) == 0 {
		return "no events"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = fmt.Sprintf("%6d %-17s %s", v.Seq, v.Kind, v.Payload)
	}
	return strings.Join(lines, "\n")
}

// parseID parses a record identifier argument.
func parseID(s string) (kitty.ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid identifier %q", s))
	}
	return kitty.ID(n), nil
}

// caller returns the --as principal.
func (o *RootOptions) caller() (kitty.Principal, error) {
	p, err := kitty.NewPrincipal(o.As)
	if err != nil {
		return "", fmt.Errorf("--as: %w", err)
	}
	return p, nil
}
