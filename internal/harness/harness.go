package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/ombu/internal/engine"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle/local"
	"github.com/roach88/ombu/internal/storage"
	"github.com/roach88/ombu/internal/storage/sqlite"
	"github.com/roach88/ombu/internal/testutil"
)

// DefaultDepth is the merkle depth of generated proofs.
const DefaultDepth = 20

// Option configures a run.
type Option func(*options)

type options struct {
	open func() (storage.Storage, error)
	log  zerolog.Logger
}

// WithStorage sets the store factory. Each run opens and closes one store.
// Default: in-memory sqlite.
func WithStorage(open func() (storage.Storage, error)) Option {
	return func(o *options) { o.open = open }
}

// WithLogger sets the forum logger. Default: zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// runner holds the state of one scenario execution.
type runner struct {
	ctx       context.Context
	forum     *engine.Forum
	oracle    *local.Oracle
	admin     model.Address
	nullifier uint64
}

// Run executes scenario against a fresh forum and returns the result.
// The returned error reports a broken scenario or a storage failure;
// unmet expectations are recorded in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		open: func() (storage.Storage, error) { return sqlite.Open(":memory:") },
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := o.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	admin := accounts["admin"]
	if scenario.Admin != "" {
		if admin, err = ResolveAccount(scenario.Admin); err != nil {
			return nil, err
		}
	}

	orc := local.New(ForumAddress)
	r := &runner{
		ctx:    ctx,
		oracle: orc,
		admin:  admin,
		forum: engine.New(st, orc,
			engine.WithLogger(o.log),
			engine.WithClock(testutil.NewStepClock(scenario.Clock.Start, stepOrDefault(scenario.Clock.Step))),
			engine.WithCallIDs(testutil.NewSequentialCallIDs("call")),
		),
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		trace, err := r.execute(i, "setup", step)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, trace)
		if trace.Outcome != OutcomeOK {
			return nil, fmt.Errorf("setup[%d] %s: failed with %s", i, step.Op, trace.Outcome)
		}
	}

	for i, step := range scenario.Steps {
		trace, err := r.execute(i, "step", step)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, trace)
		for _, msg := range checkExpect(i, step, trace) {
			result.AddError(msg)
		}
	}

	events, err := r.forum.Events(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	result.Events = events

	for _, msg := range EvaluateAssertions(ctx, r.forum, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func stepOrDefault(step uint32) uint32 {
	if step == 0 {
		return 1
	}
	return step
}

// execute runs one step. Rejections become the trace outcome; anything else
// is returned as an error.
func (r *runner) execute(index int, phase string, step Step) (StepTrace, error) {
	where := location(phase, index)
	sender := r.admin
	if step.Sender != "" {
		var err error
		if sender, err = ResolveAccount(step.Sender); err != nil {
			return StepTrace{}, fmt.Errorf("%s: %w", where, err)
		}
	}

	op, ok := operations[step.Op]
	if !ok {
		return StepTrace{}, fmt.Errorf("%s: unknown op %q", where, step.Op)
	}

	trace := StepTrace{Index: index, Phase: phase, Op: step.Op, Sender: sender.Hex(), Outcome: OutcomeOK}
	res, err := op(r, sender, args(step.Args))

	var ae *argError
	switch {
	case err == nil:
		trace.Result = res
	case errors.As(err, &ae):
		return StepTrace{}, fmt.Errorf("%s %s: %w", where, step.Op, ae.err)
	case engine.IsRejection(err):
		trace.Outcome = string(engine.CodeOf(err))
	default:
		return StepTrace{}, fmt.Errorf("%s %s: %w", where, step.Op, err)
	}
	return trace, nil
}

// location names a step by its list in the scenario file.
func location(phase string, index int) string {
	if phase == "step" {
		return fmt.Sprintf("steps[%d]", index)
	}
	return fmt.Sprintf("%s[%d]", phase, index)
}

// checkExpect compares a step's trace with its expect clause.
func checkExpect(index int, step Step, trace StepTrace) []string {
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if trace.Outcome != want {
		return []string{fmt.Sprintf("steps[%d] %s: expected %s, got %s", index, step.Op, want, trace.Outcome)}
	}
	if step.Expect == nil || len(step.Expect.Result) == 0 {
		return nil
	}

	var errs []string
	for _, key := range sortedKeys(step.Expect.Result) {
		expected := step.Expect.Result[key]
		actual, ok := trace.Result[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("steps[%d] %s: result has no field %q", index, step.Op, key))
			continue
		}
		if !scalarEqual(expected, actual) {
			errs = append(errs, fmt.Sprintf("steps[%d] %s: result %q = %v, expected %v", index, step.Op, key, actual, expected))
		}
	}
	return errs
}

// scalarEqual compares YAML and engine scalars by their printed form.
// Named accounts resolve to their address; addresses compare
// case-insensitively.
func scalarEqual(expected, actual interface{}) bool {
	e, a := fmt.Sprint(expected), fmt.Sprint(actual)
	if s, ok := expected.(string); ok {
		if addr, named := accounts[strings.ToLower(s)]; named {
			e = addr.Hex()
		}
		if strings.HasPrefix(e, "0x") {
			return strings.EqualFold(e, a)
		}
	}
	return e == a
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// argError marks a malformed step argument.
type argError struct {
	err error
}

func (e *argError) Error() string { return e.err.Error() }

func (e *argError) Unwrap() error { return e.err }
