package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/kitties/internal/kitty"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Token        string
	Trace        []StepTrace
}

// Marshal returns the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return kitty.MarshalCanonical(s.toCanonicalMap())
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Trace))
	for i, st := range s.Trace {
		m := map[string]any{
			"step":    st.Step,
			"op":      st.Op,
			"as":      st.As,
			"outcome": st.Outcome,
		}
		if st.HasID {
			m["id"] = st.ID
		}
		if len(st.Events) > 0 {
			events := make([]any, len(st.Events))
			for j, ev := range st.Events {
				events[j] = map[string]any{
					"seq":     ev.Seq,
					"kind":    ev.Kind,
					"token":   ev.Token,
					"digest":  ev.Digest,
					"payload": ev.Payload,
				}
			}
			m["events"] = events
		}
		steps[i] = m
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         steps,
	}
	if s.Token != "" {
		result["token"] = s.Token
	}
	return result
}

// Snapshot builds the golden snapshot of a scenario result.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		Token:        scenario.Token,
		Trace:        result.Trace,
	}
	return snap.Marshal()
}

// AssertGolden compares the result's trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
