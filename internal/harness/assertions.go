package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/kitties/internal/funds"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/notify"
	"github.com/roach88/kitties/internal/registry"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext is the final state assertions read from.
type AssertionContext struct {
	Ctx      context.Context
	Registry *registry.Registry
	Funds    *funds.Memory
	Events   *notify.Recorder
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertOwner:
		return assertOwner(actx, a)
	case AssertListed:
		return assertListed(actx, a)
	case AssertLineage:
		return assertLineage(actx, a)
	case AssertNextID:
		return assertNextID(actx, a)
	case AssertEventCount:
		return assertEventCount(actx, a)
	case AssertBalance:
		return assertBalance(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertOwner(actx *AssertionContext, a Assertion) error {
	owner, err := actx.Registry.Owner(actx.Ctx, kitty.ID(a.ID))
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("record %d owned by %s", a.ID, a.Owner), Actual: err.Error()}
	}
	if string(owner) != a.Owner {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("record %d owned by %s", a.ID, a.Owner), Actual: string(owner)}
	}
	return nil
}

func assertListed(actx *AssertionContext, a Assertion) error {
	listed, err := actx.Registry.IsListed(actx.Ctx, kitty.ID(a.ID))
	if err != nil {
		return err
	}
	if listed != *a.Listed {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("record %d listed=%t", a.ID, *a.Listed),
			Actual:   fmt.Sprintf("listed=%t", listed),
		}
	}
	return nil
}

func assertLineage(actx *AssertionContext, a Assertion) error {
	want := fmt.Sprintf("record %d bred from (%d, %d)", a.ID, a.Parents[0], a.Parents[1])
	lin, ok, err := actx.Registry.Lineage(actx.Ctx, kitty.ID(a.ID))
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionError{Type: a.Type, Expected: want, Actual: "no lineage"}
	}
	if uint32(lin.Parent1) != a.Parents[0] || uint32(lin.Parent2) != a.Parents[1] {
		return &AssertionError{Type: a.Type, Expected: want, Actual: fmt.Sprintf("(%d, %d)", lin.Parent1, lin.Parent2)}
	}
	return nil
}

func assertNextID(actx *AssertionContext, a Assertion) error {
	next, err := actx.Registry.NextID(actx.Ctx)
	if err != nil {
		return err
	}
	if uint32(next) != *a.Value {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(*a.Value), Actual: fmt.Sprint(next)}
	}
	return nil
}

func assertEventCount(actx *AssertionContext, a Assertion) error {
	count := 0
	for _, ev := range actx.Events.Events() {
		if a.Kind == "" || string(ev.Kind()) == a.Kind {
			count++
		}
	}
	if count != *a.Count {
		what := "events"
		if a.Kind != "" {
			what = a.Kind + " events"
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
		}
	}
	return nil
}

func assertBalance(actx *AssertionContext, a Assertion) error {
	bal, err := actx.Funds.Balance(actx.Ctx, kitty.Principal(a.Who))
	if err != nil {
		return err
	}
	if uint64(bal) != *a.Amount {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s has %d", a.Who, *a.Amount), Actual: fmt.Sprint(bal)}
	}
	return nil
}
