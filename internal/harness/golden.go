package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ombu/internal/model"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Event ids are left out; they are derived from the fields that are kept.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	steps := make([]any, len(result.Steps))
	for i, s := range result.Steps {
		step := map[string]any{
			"index":   s.Index,
			"phase":   s.Phase,
			"op":      s.Op,
			"sender":  s.Sender,
			"outcome": s.Outcome,
		}
		if len(s.Result) > 0 {
			res := make(map[string]any, len(s.Result))
			for k, v := range s.Result {
				res[k] = v
			}
			step["result"] = res
		}
		steps[i] = step
	}

	events := make([]any, len(result.Events))
	for i, ev := range result.Events {
		events[i] = map[string]any{
			"seq":     ev.Seq,
			"call_id": ev.CallID,
			"type":    string(ev.Type),
			"payload": string(ev.Payload),
		}
	}

	return model.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"steps":         steps,
		"events":        events,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
