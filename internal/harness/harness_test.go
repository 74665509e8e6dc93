package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Steps))

			AssertGolden(t, scenario, result)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/e2e.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_E2ETrace(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/e2e.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	breed := result.Trace[2]
	require.Len(t, breed.Events, 1)
	assert.Equal(t, int64(3), breed.Events[0].Seq)
	assert.Equal(t, "RecordCreated", breed.Events[0].Kind)
	assert.Equal(t, "c5288c60d444cf28b23e6c0428e4c462", breed.Events[0].Payload["dna"])

	purchase := result.Trace[5]
	assert.Equal(t, "ok", purchase.Outcome)
	assert.Empty(t, purchase.Events)
}

func TestRun_UnexpectedOutcomeFails(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectation
description: "a step that succeeds but was expected to fail"
price: 0
steps:
  - op: create
    as: alice
    expect: NOT_OWNER
  - op: list
    as: bob
    id: 0
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected NOT_OWNER, got ok")
	assert.Contains(t, result.Errors[1], "expected ok, got NOT_OWNER")
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing_assertions
description: "every assertion type reports a mismatch"
steps:
  - op: create
    as: alice
assertions:
  - type: owner
    id: 0
    owner: bob
  - type: owner
    id: 9
    owner: bob
  - type: listed
    id: 0
    listed: true
  - type: lineage
    id: 0
    parents: [1, 2]
  - type: next_id
    value: 5
  - type: event_count
    count: 3
  - type: balance
    who: alice
    amount: 1
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "Actual: alice")
	assert.Contains(t, result.Errors[1], "UNKNOWN_IDENTIFIER")
	assert.Contains(t, result.Errors[3], "no lineage")
	assert.Contains(t, result.Errors[5], "1 events")
}

func TestOutcomeOf(t *testing.T) {
	out, err := outcomeOf(nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out)

	_, err = outcomeOf(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
}
