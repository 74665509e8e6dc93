package registry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/kitties/internal/genetics"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/state"
)

// Operation names used in logs, spans and metrics.
const (
	OpCreate   = "create"
	OpBreed    = "breed"
	OpTransfer = "transfer"
	OpList     = "list"
	OpPurchase = "purchase"
)

// payment is a completed external transfer, kept so it can be reversed.
type payment struct {
	from, to kitty.Principal
	amount   kitty.Balance
}

// opContext is the state of one operation in flight.
type opContext struct {
	tx     state.Tx
	caller kitty.Principal
	seq    int64
	paid   *payment
}

// result describes a successful operation.
type result struct {
	id    kitty.ID
	hasID bool

	// event and entry are nil/zero for purchase, which announces nothing.
	event kitty.Event
	entry kitty.JournalEntry

	// next is the new identifier counter, or -1 when unchanged.
	next int64
}

// Create mints a new record owned by caller.
func (r *Registry) Create(ctx context.Context, caller kitty.Principal, name kitty.Name) (kitty.ID, error) {
	res, err := r.execute(ctx, OpCreate, caller, func(ctx context.Context, oc *opContext) (*result, error) {
		alloc, err := r.allocator(ctx, oc)
		if err != nil {
			return nil, err
		}
		dna, err := r.selector(ctx, oc.caller, oc.seq)
		if err != nil {
			return nil, err
		}
		if err := r.pay(ctx, oc, oc.caller, r.cfg.Holding); err != nil {
			return nil, err
		}
		return r.mint(ctx, oc, alloc, oc.caller, kitty.Record{DNA: dna, Name: name}, nil)
	})
	if err != nil {
		return 0, err
	}
	return res.id, nil
}

// Breed mints a record whose payload mixes parent1 and parent2 under a
// fresh selector, and records its lineage.
func (r *Registry) Breed(ctx context.Context, caller kitty.Principal, parent1, parent2 kitty.ID, name kitty.Name) (kitty.ID, error) {
	res, err := r.execute(ctx, OpBreed, caller, func(ctx context.Context, oc *opContext) (*result, error) {
		if parent1 == parent2 {
			return nil, kitty.ErrSameIdentifier.WithID(parent1)
		}
		p1, err := r.mustRecord(ctx, oc.tx, parent1)
		if err != nil {
			return nil, err
		}
		p2, err := r.mustRecord(ctx, oc.tx, parent2)
		if err != nil {
			return nil, err
		}
		alloc, err := r.allocator(ctx, oc)
		if err != nil {
			return nil, err
		}
		sel, err := r.selector(ctx, oc.caller, oc.seq)
		if err != nil {
			return nil, err
		}
		if err := r.pay(ctx, oc, oc.caller, r.cfg.Holding); err != nil {
			return nil, err
		}
		child := kitty.Record{DNA: genetics.Mix(p1.DNA, p2.DNA, sel), Name: name}
		return r.mint(ctx, oc, alloc, oc.caller, child, &kitty.Lineage{Parent1: parent1, Parent2: parent2})
	})
	if err != nil {
		return 0, err
	}
	return res.id, nil
}

// Transfer gives id to another principal. Only the owner may transfer.
// Both principals are NFC normalised before use.
// A listing survives the transfer and is then bought from the new owner.
func (r *Registry) Transfer(ctx context.Context, caller, to kitty.Principal, id kitty.ID) error {
	_, err := r.execute(ctx, OpTransfer, caller, func(ctx context.Context, oc *opContext) (*result, error) {
		to, err := kitty.NewPrincipal(string(to))
		if err != nil {
			return nil, fmt.Errorf("transfer recipient: %w", err)
		}
		if err := r.requireOwner(ctx, oc.tx, id, oc.caller); err != nil {
			return nil, err
		}
		if err := oc.tx.SetOwner(ctx, id, to); err != nil {
			return nil, fmt.Errorf("transfer: %w", err)
		}
		return r.announce(ctx, oc, id, kitty.RecordTransferred{From: oc.caller, To: to, ID: id})
	})
	return err
}

// List offers id for sale at the registry price. Only the owner may list.
func (r *Registry) List(ctx context.Context, caller kitty.Principal, id kitty.ID) error {
	_, err := r.execute(ctx, OpList, caller, func(ctx context.Context, oc *opContext) (*result, error) {
		if err := r.requireOwner(ctx, oc.tx, id, oc.caller); err != nil {
			return nil, err
		}
		if err := oc.tx.InsertListing(ctx, id); err != nil {
			return nil, err
		}
		return r.announce(ctx, oc, id, kitty.RecordListed{Owner: oc.caller, ID: id})
	})
	return err
}

// Purchase buys a listed record: the price moves from caller to the
// owner, ownership moves to caller, and the listing is removed.
// Purchase emits no event.
func (r *Registry) Purchase(ctx context.Context, caller kitty.Principal, id kitty.ID) error {
	_, err := r.execute(ctx, OpPurchase, caller, func(ctx context.Context, oc *opContext) (*result, error) {
		if _, err := r.mustRecord(ctx, oc.tx, id); err != nil {
			return nil, err
		}
		seller, _, err := oc.tx.Owner(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("purchase: %w", err)
		}
		if seller == oc.caller {
			return nil, kitty.ErrAlreadyOwner.WithID(id)
		}
		listed, err := oc.tx.IsListed(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("purchase: %w", err)
		}
		if !listed {
			return nil, kitty.ErrNotListed.WithID(id)
		}

		if err := r.pay(ctx, oc, oc.caller, seller); err != nil {
			return nil, err
		}
		if err := oc.tx.SetOwner(ctx, id, oc.caller); err != nil {
			return nil, fmt.Errorf("purchase: %w", err)
		}
		if err := oc.tx.DeleteListing(ctx, id); err != nil {
			return nil, fmt.Errorf("purchase: %w", err)
		}
		return &result{id: id, hasID: true, next: -1}, nil
	})
	return err
}

// execute runs fn as one critical section, commits its transaction and
// then announces the event. If fn fails or the commit fails after a
// payment, the payment is reversed.
func (r *Registry) execute(
	ctx context.Context,
	op string,
	caller kitty.Principal,
	fn func(context.Context, *opContext) (*result, error),
) (res *result, err error) {
	ctx, span := r.tracer.Start(ctx, "registry."+op, trace.WithAttributes(
		attribute.String("op", op),
		attribute.String("caller", string(caller)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if res.hasID {
			span.SetAttributes(attribute.Int64("id", int64(res.id)))
		}
		span.End()
		if r.observer != nil {
			r.observer.ObserveOperation(op, err)
		}
	}()

	caller, err = kitty.NewPrincipal(string(caller))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, seq, err := r.commit(ctx, op, caller, fn)
	if err != nil {
		r.logger.DebugContext(ctx, "operation rejected",
			"op", op, "caller", caller, "seq", seq, "error", err)
		return nil, err
	}

	// Sinks run after the lock is released, so they may query the registry.
	if res.event != nil && r.cfg.Events != nil {
		if eerr := r.cfg.Events.Emit(ctx, res.entry, res.event); eerr != nil {
			r.logger.WarnContext(ctx, "event delivery failed",
				"op", op, "seq", res.entry.Seq, "error", eerr)
		}
	}
	if res.next >= 0 && r.observer != nil {
		r.observer.SetRecords(int(res.next))
	}
	r.logger.DebugContext(ctx, "operation committed",
		"op", op, "caller", caller, "id", res.id, "seq", seq)
	return res, nil
}

// commit runs fn under the registry lock and commits its transaction.
// It returns the sequence drawn for the operation, or 0 if none was.
func (r *Registry) commit(
	ctx context.Context,
	op string,
	caller kitty.Principal,
	fn func(context.Context, *opContext) (*result, error),
) (*result, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.backend.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	oc := &opContext{tx: tx, caller: caller, seq: r.clock.Next()}
	res, err := fn(ctx, oc)
	if err == nil {
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%s: %w", op, cerr)
		}
	}
	if err != nil {
		if oc.paid != nil {
			err = r.refund(ctx, op, *oc.paid, err)
		}
		return nil, oc.seq, err
	}
	return res, oc.seq, nil
}

// allocator loads the identifier counter and checks there is capacity.
func (r *Registry) allocator(ctx context.Context, oc *opContext) (*state.Allocator, error) {
	next, err := oc.tx.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read next id: %w", err)
	}
	alloc := state.NewAllocator(next, r.maxID)
	if err := alloc.Check(); err != nil {
		return nil, err
	}
	return alloc, nil
}

func (r *Registry) selector(ctx context.Context, caller kitty.Principal, seq int64) (kitty.DNA, error) {
	seed, err := r.cfg.Randomness.Seed(ctx)
	if err != nil {
		return kitty.DNA{}, fmt.Errorf("read seed: %w", err)
	}
	return genetics.Selector(seed, caller, uint64(seq))
}

// pay charges the registry price. A zero price moves nothing.
func (r *Registry) pay(ctx context.Context, oc *opContext, from, to kitty.Principal) error {
	if err := r.cfg.Funds.Transfer(ctx, from, to, r.cfg.Price); err != nil {
		return kitty.NewTransferError(err)
	}
	oc.paid = &payment{from: from, to: to, amount: r.cfg.Price}
	return nil
}

// refund reverses p after the operation failed. The refund runs even if
// ctx was cancelled.
func (r *Registry) refund(ctx context.Context, op string, p payment, cause error) error {
	if p.amount == 0 || p.from == p.to {
		return cause
	}
	if err := r.cfg.Funds.Transfer(context.WithoutCancel(ctx), p.to, p.from, p.amount); err != nil {
		r.logger.ErrorContext(ctx, "payment compensation failed",
			"op", op, "payer", p.from, "payee", p.to, "amount", p.amount, "error", err)
		return errors.Join(cause, fmt.Errorf("compensate payment: %w", err))
	}
	r.logger.WarnContext(ctx, "payment compensated",
		"op", op, "payer", p.from, "payee", p.to, "amount", p.amount, "cause", cause)
	return cause
}

// mint allocates an identifier and writes a new record owned by caller.
func (r *Registry) mint(
	ctx context.Context,
	oc *opContext,
	alloc *state.Allocator,
	caller kitty.Principal,
	rec kitty.Record,
	lin *kitty.Lineage,
) (*result, error) {
	id, err := alloc.Allocate()
	if err != nil {
		return nil, err
	}
	rec.ID = id

	if err := oc.tx.SetNextID(ctx, alloc.Next()); err != nil {
		return nil, fmt.Errorf("mint: %w", err)
	}
	if err := oc.tx.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	if lin != nil {
		if err := oc.tx.InsertLineage(ctx, id, *lin); err != nil {
			return nil, err
		}
	}
	if err := oc.tx.SetOwner(ctx, id, caller); err != nil {
		return nil, fmt.Errorf("mint: %w", err)
	}

	res, err := r.announce(ctx, oc, id, kitty.RecordCreated{Owner: caller, ID: id, Record: rec})
	if err != nil {
		return nil, err
	}
	res.next = int64(alloc.Next())
	return res, nil
}

// announce journals ev in the operation's transaction.
func (r *Registry) announce(ctx context.Context, oc *opContext, id kitty.ID, ev kitty.Event) (*result, error) {
	entry, err := kitty.NewJournalEntry(oc.seq, r.tokens.Generate(), ev)
	if err != nil {
		return nil, fmt.Errorf("journal %s: %w", ev.Kind(), err)
	}
	if err := oc.tx.AppendEvent(ctx, entry); err != nil {
		return nil, fmt.Errorf("journal %s: %w", ev.Kind(), err)
	}
	return &result{id: id, hasID: true, event: ev, entry: entry, next: -1}, nil
}

// mustRecord returns the record for id or UNKNOWN_IDENTIFIER.
func (r *Registry) mustRecord(ctx context.Context, tx state.Reader, id kitty.ID) (kitty.Record, error) {
	rec, ok, err := tx.Record(ctx, id)
	if err != nil {
		return kitty.Record{}, fmt.Errorf("read record: %w", err)
	}
	if !ok {
		return kitty.Record{}, kitty.ErrUnknownIdentifier.WithID(id)
	}
	return rec, nil
}

// requireOwner checks id exists and is owned by caller.
func (r *Registry) requireOwner(ctx context.Context, tx state.Reader, id kitty.ID, caller kitty.Principal) error {
	if _, err := r.mustRecord(ctx, tx, id); err != nil {
		return err
	}
	owner, ok, err := tx.Owner(ctx, id)
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}
	if !ok || owner != caller {
		return kitty.ErrNotOwner.WithID(id)
	}
	return nil
}
