// Package harness runs conformance scenarios against the registry.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: purchase_flow
//	description: "bob buys alice's listed kitty"
//	seed: "000102030405060708090a0b0c0d0e0f"
//	price: 10
//	balances: { alice: 100, bob: 100 }
//	steps:
//	  - op: create
//	    as: alice
//	    name: kitty0
//	  - op: list
//	    as: alice
//	    id: 0
//	  - op: purchase
//	    as: bob
//	    id: 0
//	  - op: purchase
//	    as: bob
//	    id: 0
//	    expect: ALREADY_OWNER
//	assertions:
//	  - type: owner
//	    id: 0
//	    owner: bob
//	  - type: balance
//	    who: alice
//	    amount: 80
//
// A step without expect must succeed. Otherwise expect names the error
// code the step must fail with.
//
// # Assertion Types
//
//   - owner: the record's owner
//   - listed: whether the record is offered for sale
//   - lineage: the parent pair of a bred record
//   - next_id: the identifier counter
//   - event_count: the number of events emitted, optionally of one kind
//   - balance: a principal's funds after the run
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory arena, a fixed seed (scenario.seed, or
// the bytes 00..1f), a deterministic operation clock and a fixed token,
// so the same scenario always produces the same trace. Traces are
// compared against golden files in testdata/golden.
package harness
