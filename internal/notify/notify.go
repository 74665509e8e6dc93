// Package notify delivers committed registry events to observers.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/kitties/internal/kitty"
)

// Sink receives one committed event.
type Sink interface {
	Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error
}

// Notification is one delivered event.
type Notification struct {
	Entry kitty.JournalEntry
	Event kitty.Event
}

// Recorder keeps every event in memory, in delivery order.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit records the event.
func (r *Recorder) Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Notification{Entry: entry, Event: ev})
	return nil
}

// Notifications returns a copy of everything recorded.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// Events returns the recorded events without their journal entries.
func (r *Recorder) Events() []kitty.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kitty.Event, len(r.events))
	for i, n := range r.events {
		out[i] = n.Event
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Logger writes each event as a structured log line.
type Logger struct {
	Log *slog.Logger
}

// Emit logs the event at info level.
func (l Logger) Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "event",
		"kind", string(entry.Kind),
		"seq", entry.Seq,
		"token", entry.Token,
		"payload", string(entry.Payload),
	)
	return nil
}

// Multi fans an event out to every sink. All sinks are tried; their
// errors are joined.
type Multi []Sink

// Emit delivers to each sink in order.
func (m Multi) Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, entry, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, kitty.JournalEntry, kitty.Event) error { return nil }
