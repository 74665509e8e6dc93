// Package registry is the facade over the record ledgers: the five
// mutating operations and the read queries.
//
// Every operation runs as one critical section: checks, the external
// payment, and all ledger writes happen inside a single backend
// transaction, and a failure at any point leaves no change behind. The
// registry assumes a single serialized stream of calls and enforces it
// with a mutex.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/state"
)

// DefaultMaxID is the identifier bound used when Config.MaxID is zero.
// Identifiers below it can be issued; reaching it is an overflow.
const DefaultMaxID kitty.ID = math.MaxUint32

// Funds is the external balance ledger. Transfer either moves the whole
// amount or fails having moved nothing.
type Funds interface {
	Transfer(ctx context.Context, from, to kitty.Principal, amount kitty.Balance) error
}

// Randomness supplies the external seed for trait generation.
type Randomness interface {
	Seed(ctx context.Context) ([]byte, error)
}

// EventSink receives each event after its operation commits.
type EventSink interface {
	Emit(ctx context.Context, entry kitty.JournalEntry, ev kitty.Event) error
}

// Observer records operation outcomes. Implemented by metrics.Metrics.
type Observer interface {
	ObserveOperation(op string, err error)
	SetRecords(n int)
}

// TokenGenerator produces operation tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// Sequencer produces the operation sequence. Implemented by Clock.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Config is the registry's constructor-injected configuration.
type Config struct {
	// Price is charged for create and breed (caller pays Holding) and
	// for purchase (buyer pays seller).
	Price kitty.Balance

	// MaxID bounds the identifier space. Zero means DefaultMaxID.
	MaxID kitty.ID

	// Holding is the account create and breed payments go to.
	Holding kitty.Principal

	Funds      Funds
	Randomness Randomness

	// Events may be nil, in which case events are only journaled.
	Events EventSink
}

func (c Config) validate() error {
	var errs []error
	if c.Funds == nil {
		errs = append(errs, errors.New("funds collaborator is required"))
	}
	if c.Randomness == nil {
		errs = append(errs, errors.New("randomness collaborator is required"))
	}
	if c.Holding == "" {
		errs = append(errs, errors.New("holding account is required"))
	}
	return errors.Join(errs...)
}

// Registry coordinates the ledgers behind the public operations.
type Registry struct {
	mu sync.Mutex

	backend state.Backend
	cfg     Config
	maxID   kitty.ID

	clock    Sequencer
	tokens   TokenGenerator
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver records operation outcomes, e.g. as Prometheus metrics.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithTracer sets the tracer. Default: the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// WithTokenGenerator sets the operation token source. Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(r *Registry) { r.tokens = g }
}

// WithSequencer replaces the clock that would resume from the journal.
func WithSequencer(s Sequencer) Option {
	return func(r *Registry) { r.clock = s }
}

// New creates a registry over backend. The operation clock resumes after
// the last journaled sequence.
func New(ctx context.Context, backend state.Backend, cfg Config, opts ...Option) (*Registry, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("registry config: %w", err)
	}

	r := &Registry{
		backend: backend,
		cfg:     cfg,
		maxID:   cfg.MaxID,
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	if r.maxID == 0 {
		r.maxID = DefaultMaxID
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("github.com/roach88/kitties/internal/registry")
	}

	var (
		last int64
		next kitty.ID
	)
	err := r.view(ctx, func(tx state.Reader) error {
		var err error
		if last, err = tx.LastSeq(ctx); err != nil {
			return err
		}
		next, err = tx.NextID(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if r.clock == nil {
		r.clock = NewClockAt(last)
	}
	if r.observer != nil {
		r.observer.SetRecords(int(next))
	}

	r.logger.Debug("registry ready", "next_id", next, "seq", last, "max_id", r.maxID, "price", cfg.Price)
	return r, nil
}

// view runs fn in a transaction that is always rolled back.
func (r *Registry) view(ctx context.Context, fn func(state.Reader) error) error {
	tx, err := r.backend.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}
