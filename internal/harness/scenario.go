package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kitties/internal/genetics"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is the hex entropy seed. Empty uses the bytes 00..1f.
	Seed string `yaml:"seed,omitempty"`

	// Price is the registry price.
	Price uint64 `yaml:"price"`

	// Holding receives create and breed payments. Default "treasury".
	Holding string `yaml:"holding,omitempty"`

	// MaxID bounds the identifier space. Zero means unbounded (2^32-1).
	MaxID uint32 `yaml:"max_id,omitempty"`

	// Token is the fixed journal token. Empty means "test-token-default".
	Token string `yaml:"token,omitempty"`

	// Balances seeds the funds ledger.
	Balances map[string]uint64 `yaml:"balances,omitempty"`

	// Steps are the operations, run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one registry operation.
type Step struct {
	// Op is one of create, breed, transfer, list, purchase.
	Op string `yaml:"op"`

	// As is the calling principal.
	As string `yaml:"as"`

	// Name labels the record minted by create and breed.
	Name string `yaml:"name,omitempty"`

	// ID is the record acted on by transfer, list and purchase.
	ID uint32 `yaml:"id,omitempty"`

	// Parents are the two records breed combines.
	Parents []uint32 `yaml:"parents,omitempty"`

	// To is the transfer recipient.
	To string `yaml:"to,omitempty"`

	// Expect is the error code the step must fail with. Empty means success.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// ID is the record checked by owner, listed and lineage.
	ID uint32 `yaml:"id,omitempty"`

	Owner   string   `yaml:"owner,omitempty"`
	Listed  *bool    `yaml:"listed,omitempty"`
	Parents []uint32 `yaml:"parents,omitempty"`

	// Value is the expected identifier counter (next_id).
	Value *uint32 `yaml:"value,omitempty"`

	// Kind optionally restricts event_count to one event kind.
	Kind  string `yaml:"kind,omitempty"`
	Count *int   `yaml:"count,omitempty"`

	Who    string  `yaml:"who,omitempty"`
	Amount *uint64 `yaml:"amount,omitempty"`
}

// Operation names accepted in steps.
const (
	OpCreate   = "create"
	OpBreed    = "breed"
	OpTransfer = "transfer"
	OpList     = "list"
	OpPurchase = "purchase"
)

// Assertion type constants.
const (
	AssertOwner      = "owner"
	AssertListed     = "listed"
	AssertLineage    = "lineage"
	AssertNextID     = "next_id"
	AssertEventCount = "event_count"
	AssertBalance    = "balance"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Seed != "" {
		seed, err := hex.DecodeString(s.Seed)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if len(seed) > genetics.MaxSeedSize {
			return fmt.Errorf("seed is %d bytes, max %d", len(seed), genetics.MaxSeedSize)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpCreate, OpList, OpPurchase:
	case OpBreed:
		if len(st.Parents) != 2 {
			return fmt.Errorf("steps[%d]: breed needs exactly two parents", index)
		}
	case OpTransfer:
		if st.To == "" {
			return fmt.Errorf("steps[%d]: to is required for transfer", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOwner:
		if a.Owner == "" {
			return fmt.Errorf("assertions[%d]: owner is required for owner", index)
		}
	case AssertListed:
		if a.Listed == nil {
			return fmt.Errorf("assertions[%d]: listed is required for listed", index)
		}
	case AssertLineage:
		if len(a.Parents) != 2 {
			return fmt.Errorf("assertions[%d]: lineage needs exactly two parents", index)
		}
	case AssertNextID:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for next_id", index)
		}
	case AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertBalance:
		if a.Who == "" || a.Amount == nil {
			return fmt.Errorf("assertions[%d]: who and amount are required for balance", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
