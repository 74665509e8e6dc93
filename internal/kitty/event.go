package kitty

import "fmt"

// EventKind names an announced state change.
type EventKind string

const (
	KindRecordCreated     EventKind = "RecordCreated"
	KindRecordTransferred EventKind = "RecordTransferred"
	KindRecordListed      EventKind = "RecordListed"
)

// Event describes a committed state change for the notification facility.
type Event interface {
	Kind() EventKind
	// Fields returns the event payload as a canonical-JSON-ready object.
	Fields() map[string]any
}

// RecordCreated is emitted by create and breed.
type RecordCreated struct {
	Owner  Principal
	ID     ID
	Record Record
}

func (RecordCreated) Kind() EventKind { return KindRecordCreated }

func (e RecordCreated) Fields() map[string]any {
	return map[string]any{
		"owner": e.Owner,
		"id":    e.ID,
		"dna":   e.Record.DNA.String(),
		"name":  e.Record.Name.String(),
	}
}

// RecordTransferred is emitted by transfer.
type RecordTransferred struct {
	From Principal
	To   Principal
	ID   ID
}

func (RecordTransferred) Kind() EventKind { return KindRecordTransferred }

func (e RecordTransferred) Fields() map[string]any {
	return map[string]any{
		"from": e.From,
		"to":   e.To,
		"id":   e.ID,
	}
}

// RecordListed is emitted by list.
type RecordListed struct {
	Owner Principal
	ID    ID
}

func (RecordListed) Kind() EventKind { return KindRecordListed }

func (e RecordListed) Fields() map[string]any {
	return map[string]any{
		"owner": e.Owner,
		"id":    e.ID,
	}
}

// DecodeEvent rebuilds an Event from its kind and canonical payload.
func DecodeEvent(kind EventKind, payload []byte) (Event, error) {
	obj, err := UnmarshalObject(payload)
	if err != nil {
		return nil, err
	}
	f := fieldReader{obj: obj}
	var ev Event
	switch kind {
	case KindRecordCreated:
		dna, derr := ParseDNA(f.str("dna"))
		if derr != nil {
			return nil, derr
		}
		name, nerr := ParseName(f.str("name"))
		if nerr != nil {
			return nil, nerr
		}
		id := f.id("id")
		ev = RecordCreated{
			Owner:  Principal(f.str("owner")),
			ID:     id,
			Record: Record{ID: id, DNA: dna, Name: name},
		}
	case KindRecordTransferred:
		ev = RecordTransferred{
			From: Principal(f.str("from")),
			To:   Principal(f.str("to")),
			ID:   f.id("id"),
		}
	case KindRecordListed:
		ev = RecordListed{
			Owner: Principal(f.str("owner")),
			ID:    f.id("id"),
		}
	default:
		return nil, fmt.Errorf("decode event: unknown kind %q", kind)
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, f.err)
	}
	return ev, nil
}

// fieldReader pulls typed fields out of a decoded object, keeping the first error.
type fieldReader struct {
	obj map[string]any
	err error
}

func (f *fieldReader) str(key string) string {
	v, ok := f.obj[key].(string)
	if !ok && f.err == nil {
		f.err = fmt.Errorf("field %q: want string, got %T", key, f.obj[key])
	}
	return v
}

func (f *fieldReader) id(key string) ID {
	n, ok := f.obj[key].(interface{ Int64() (int64, error) })
	if !ok {
		if f.err == nil {
			f.err = fmt.Errorf("field %q: want integer, got %T", key, f.obj[key])
		}
		return 0
	}
	v, err := n.Int64()
	if err != nil || v < 0 || v > int64(^uint32(0)) {
		if f.err == nil {
			f.err = fmt.Errorf("field %q: identifier out of range", key)
		}
		return 0
	}
	return ID(v)
}
