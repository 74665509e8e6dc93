package harness

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/kitties/internal/entropy"
	"github.com/roach88/kitties/internal/funds"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/notify"
	"github.com/roach88/kitties/internal/registry"
	"github.com/roach88/kitties/internal/state"
	"github.com/roach88/kitties/internal/testutil"
)

// DefaultHolding is the holding account when a scenario names none.
const DefaultHolding = "treasury"

// OutcomeOK is the outcome of a successful step.
const OutcomeOK = "ok"

// Harness is the scenario execution environment.
// It runs scenarios with a deterministic clock, seed and token.
type Harness struct {
	registry *registry.Registry
	funds    *funds.Memory
	events   *notify.Recorder
	clock    *testutil.DeterministicClock
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory arena. The returned error
// reports a harness failure; scenario failures are in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		st, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.Trace = append(result.Trace, st)

		want := step.Expect
		if want == "" {
			want = OutcomeOK
		}
		if st.Outcome != want {
			result.AddError(fmt.Sprintf("step %d (%s as %s): expected %s, got %s", i, step.Op, step.As, want, st.Outcome))
		}
	}

	if err := h.registry.CheckInvariants(ctx); err != nil {
		result.AddError(fmt.Sprintf("invariants: %v", err))
	}
	if _, err := h.registry.VerifyJournal(ctx); err != nil {
		result.AddError(fmt.Sprintf("journal: %v", err))
	}

	actx := &AssertionContext{
		Ctx:      ctx,
		Registry: h.registry,
		Funds:    h.funds,
		Events:   h.events,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, s *Scenario) (*Harness, error) {
	seed := testutil.CountingSeed(32)
	if s.Seed != "" {
		var err error
		if seed, err = hex.DecodeString(s.Seed); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	holding := s.Holding
	if holding == "" {
		holding = DefaultHolding
	}

	balances := make(map[kitty.Principal]kitty.Balance, len(s.Balances))
	for who, amount := range s.Balances {
		balances[kitty.Principal(who)] = kitty.Balance(amount)
	}

	h := &Harness{
		funds:  funds.NewMemory(balances),
		events: notify.NewRecorder(),
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	reg, err := registry.New(ctx, state.NewArena(), registry.Config{
		Price:      kitty.Balance(s.Price),
		MaxID:      kitty.ID(s.MaxID),
		Holding:    kitty.Principal(holding),
		Funds:      h.funds,
		Randomness: entropy.Fixed(seed),
		Events:     h.events,
	},
		registry.WithLogger(h.logger),
		registry.WithSequencer(h.clock),
		registry.WithTokenGenerator(testutil.NewFixedTokenGenerator(s.Token)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	h.registry = reg
	return h, nil
}

// executeStep runs one step and traces it. Rejections are outcomes, not
// errors; only infrastructure failures are returned.
func (h *Harness) executeStep(ctx context.Context, i int, step Step) (StepTrace, error) {
	before := h.events.Len()
	caller := kitty.Principal(step.As)

	var (
		id    kitty.ID
		hasID bool
		err   error
	)
	switch step.Op {
	case OpCreate:
		var name kitty.Name
		if name, err = kitty.ParseName(step.Name); err == nil {
			id, err = h.registry.Create(ctx, caller, name)
			hasID = err == nil
		}
	case OpBreed:
		var name kitty.Name
		if name, err = kitty.ParseName(step.Name); err == nil {
			id, err = h.registry.Breed(ctx, caller, kitty.ID(step.Parents[0]), kitty.ID(step.Parents[1]), name)
			hasID = err == nil
		}
	case OpTransfer:
		id, hasID = kitty.ID(step.ID), true
		err = h.registry.Transfer(ctx, caller, kitty.Principal(step.To), id)
	case OpList:
		id, hasID = kitty.ID(step.ID), true
		err = h.registry.List(ctx, caller, id)
	case OpPurchase:
		id, hasID = kitty.ID(step.ID), true
		err = h.registry.Purchase(ctx, caller, id)
	default:
		return StepTrace{}, fmt.Errorf("unknown op %q", step.Op)
	}

	outcome, oerr := outcomeOf(err)
	if oerr != nil {
		return StepTrace{}, oerr
	}

	st := StepTrace{Step: i, Op: step.Op, As: step.As, Outcome: outcome}
	if outcome == OutcomeOK && hasID {
		st.ID, st.HasID = uint32(id), true
	}
	for _, n := range h.events.Notifications()[before:] {
		st.Events = append(st.Events, EventTrace{
			Seq:     n.Entry.Seq,
			Kind:    string(n.Entry.Kind),
			Token:   n.Entry.Token,
			Digest:  n.Entry.Digest,
			Payload: n.Event.Fields(),
		})
	}

	h.logger.Info("step completed",
		"step", i,
		"op", step.Op,
		"as", step.As,
		"outcome", outcome,
		"seq", h.clock.Current(),
	)
	return st, nil
}

// outcomeOf maps a step error to its outcome code. Errors that are not
// rejections are returned as-is.
func outcomeOf(err error) (string, error) {
	switch {
	case err == nil:
		return OutcomeOK, nil
	case kitty.IsRejection(err):
		return string(kitty.CodeOf(err)), nil
	case errors.Is(err, kitty.ErrInvalidName):
		return "INVALID_NAME", nil
	case errors.Is(err, kitty.ErrInvalidPrincipal):
		return "INVALID_PRINCIPAL", nil
	default:
		return "", err
	}
}
