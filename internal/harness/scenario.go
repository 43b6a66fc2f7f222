package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one forum conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Admin is the default sender. Defaults to the admin account.
	Admin string `yaml:"admin,omitempty"`

	// Clock configures the block clock. Zero values mean DefaultStart and 1.
	Clock ClockConfig `yaml:"clock,omitempty"`

	// Setup steps run before Steps and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps are the calls under test.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final event log and state.
	Assertions []Assertion `yaml:"assertions"`
}

// ClockConfig configures the harness step clock.
type ClockConfig struct {
	Start uint32 `yaml:"start"`
	Step  uint32 `yaml:"step"`
}

// Step is a single forum call.
type Step struct {
	// Op is the operation name, e.g. "vote_on_post".
	Op string `yaml:"op"`

	// Sender is a named account or hex address. Defaults to the scenario admin.
	Sender string `yaml:"sender,omitempty"`

	// Args are the operation arguments.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Expect specifies the expected outcome. Nil means success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Error is the expected ForumError code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Result is a subset of the expected result fields.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates the event log or final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Event is an event type (event_count, event_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected order of event types (event_order).
	Events []string `yaml:"events,omitempty"`

	// Fields is a subset of the event payload (event_contains).
	Fields map[string]interface{} `yaml:"fields,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Group, Post and SubPost address a record (post_state, vote_flag, counter).
	Group   string `yaml:"group,omitempty"`
	Post    uint64 `yaml:"post,omitempty"`
	SubPost uint64 `yaml:"sub_post,omitempty"`

	// Voter is the account whose flag is read (vote_flag).
	Voter string `yaml:"voter,omitempty"`

	// Voted is the expected flag (vote_flag).
	Voted bool `yaml:"voted,omitempty"`

	// Counter is group_counter or post_counter (counter).
	Counter string `yaml:"counter,omitempty"`

	// Value is the expected counter value (counter).
	Value uint64 `yaml:"value,omitempty"`

	// Expect holds expected post fields (post_state).
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertEventContains = "event_contains"
	AssertPostState     = "post_state"
	AssertVoteFlag      = "vote_flag"
	AssertCounter       = "counter"
)

// Counter names.
const (
	CounterGroups = "group_counter"
	CounterPosts  = "post_counter"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

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
	if s.Admin != "" {
		if _, err := ResolveAccount(s.Admin); err != nil {
			return fmt.Errorf("admin: %w", err)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i]); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if _, ok := operations[step.Op]; !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Sender != "" {
		if _, err := ResolveAccount(step.Sender); err != nil {
			return fmt.Errorf("sender: %w", err)
		}
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for event_count")
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("events list is required for event_order")
		}
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("event is required for event_contains")
		}
	case AssertPostState:
		if a.Group == "" || a.Post == 0 {
			return fmt.Errorf("group and post are required for post_state")
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("expect is required for post_state")
		}
	case AssertVoteFlag:
		if a.Group == "" || a.Post == 0 || a.Voter == "" {
			return fmt.Errorf("group, post and voter are required for vote_flag")
		}
	case AssertCounter:
		switch a.Counter {
		case CounterGroups:
		case CounterPosts:
			if a.Group == "" {
				return fmt.Errorf("group is required for post_counter")
			}
		default:
			return fmt.Errorf("counter must be %s or %s", CounterGroups, CounterPosts)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
