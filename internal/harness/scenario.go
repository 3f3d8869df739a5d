package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one ranking scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rule is the rulebook id the event is played under.
	// Defaults to "standard".
	Rule string `yaml:"rule,omitempty"`

	// CutoffRatio is the qualification share when the rule sets none.
	CutoffRatio float64 `yaml:"cutoff_ratio,omitempty"`

	Fencers []FencerSpec `yaml:"fencers"`
	Pools   []PoolSpec   `yaml:"pools"`

	// Bracket lists elimination results in the order they are recorded.
	Bracket []WinnerSpec `yaml:"bracket,omitempty"`

	Expect Expectation `yaml:"expect"`
}

// FencerSpec is one fencer of the field.
type FencerSpec struct {
	ID        string `yaml:"id"`
	LastName  string `yaml:"last_name"`
	FirstName string `yaml:"first_name,omitempty"`
	FencingID string `yaml:"fencing_id,omitempty"`
}

// PoolSpec is one pool sheet.
type PoolSpec struct {
	ID      string     `yaml:"id"`
	Fencers []string   `yaml:"fencers"`
	Bouts   []BoutSpec `yaml:"bouts"`
}

// BoutSpec is one pool bout. Score holds the touches of left, then right.
type BoutSpec struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
	Score []int  `yaml:"score"`
}

// WinnerSpec records the winner of one elimination match.
type WinnerSpec struct {
	Round  int    `yaml:"round"`
	Match  int    `yaml:"match"`
	Winner string `yaml:"winner"`
}

// Expectation lists what the final state must look like. Empty fields are
// not checked.
type Expectation struct {
	// Qualifiers is the seeded qualifier list, in seed order.
	Qualifiers []string `yaml:"qualifiers,omitempty"`

	// Order is the final standing, first place first.
	Order []string `yaml:"order,omitempty"`

	// Labels maps fencer ids to their elimination label.
	Labels map[string]string `yaml:"labels,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
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

// validateScenario checks that required fields are present and that every
// reference points at a declared fencer.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Fencers) == 0 {
		return fmt.Errorf("fencers list is required and must be non-empty")
	}
	if len(s.Pools) == 0 {
		return fmt.Errorf("pools list is required and must be non-empty")
	}
	if s.CutoffRatio < 0 || s.CutoffRatio > 1 {
		return fmt.Errorf("cutoff_ratio must be in (0,1]")
	}

	known := make(map[string]bool, len(s.Fencers))
	for i, f := range s.Fencers {
		if f.ID == "" {
			return fmt.Errorf("fencers[%d]: id is required", i)
		}
		if f.LastName == "" {
			return fmt.Errorf("fencers[%d]: last_name is required", i)
		}
		if known[f.ID] {
			return fmt.Errorf("fencers[%d]: duplicate id %q", i, f.ID)
		}
		known[f.ID] = true
	}

	poolIDs := make(map[string]bool, len(s.Pools))
	for i, p := range s.Pools {
		if p.ID == "" {
			return fmt.Errorf("pools[%d]: id is required", i)
		}
		if poolIDs[p.ID] {
			return fmt.Errorf("pools[%d]: duplicate id %q", i, p.ID)
		}
		poolIDs[p.ID] = true

		seats := make(map[string]bool, len(p.Fencers))
		for _, id := range p.Fencers {
			if !known[id] {
				return fmt.Errorf("pools[%d]: unknown fencer %q", i, id)
			}
			seats[id] = true
		}
		for j, b := range p.Bouts {
			if !seats[b.Left] || !seats[b.Right] {
				return fmt.Errorf("pools[%d].bouts[%d]: %s vs %s is not a bout of this pool", i, j, b.Left, b.Right)
			}
			if len(b.Score) != 2 {
				return fmt.Errorf("pools[%d].bouts[%d]: score needs two values", i, j)
			}
		}
	}

	for i, w := range s.Bracket {
		if !known[w.Winner] {
			return fmt.Errorf("bracket[%d]: unknown fencer %q", i, w.Winner)
		}
	}

	for id := range s.Expect.Labels {
		if !known[id] {
			return fmt.Errorf("expect.labels: unknown fencer %q", id)
		}
	}
	return nil
}
