package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ombu/internal/engine"
	"github.com/roach88/ombu/internal/model"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Events   []model.Event // Event log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvent log:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Type, ev.Payload)
		}
	}
	return buf.String()
}

func assertEventCount(events []model.Event, a Assertion) error {
	count := 0
	for _, ev := range events {
		if a.Event == "" || string(ev.Type) == a.Event {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	what := "events"
	if a.Event != "" {
		what = a.Event + " events"
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Events:   events,
	}
}

// assertEventOrder checks that the event types occur in order. Other events
// may appear between them.
func assertEventOrder(events []model.Event, a Assertion) error {
	next := 0
	for _, ev := range events {
		if next < len(a.Events) && string(ev.Type) == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("missing %s after position %d", a.Events[next], next),
		Events:   events,
	}
}

func assertEventContains(events []model.Event, a Assertion) error {
	for _, ev := range events {
		if string(ev.Type) != a.Event {
			continue
		}
		fields, err := ev.Fields()
		if err != nil {
			return err
		}
		if matchFields(fields, a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s with fields %v", a.Event, a.Fields),
		Actual:   "not found in event log",
		Events:   events,
	}
}

// matchFields reports whether actual contains every expected field (subset match).
func matchFields(actual, expected map[string]interface{}) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !scalarEqual(want, got) {
			return false
		}
	}
	return true
}

func assertPostState(ctx context.Context, forum *engine.Forum, a Assertion) error {
	group, err := model.ParseGroupID(a.Group)
	if err != nil {
		return err
	}

	var post model.Post
	if a.SubPost == 0 {
		post, err = forum.Post(ctx, group, model.PostID(a.Post))
	} else {
		post, err = forum.SubPost(ctx, group, model.PostID(a.Post), model.SubPostID(a.SubPost))
	}
	if err != nil {
		return err
	}

	actual := map[string]interface{}{
		"content":   post.Content,
		"timestamp": post.Timestamp,
		"upvotes":   post.Upvotes,
		"downvotes": post.Downvotes,
		"exists":    post.Exists(),
	}
	for _, key := range sortedKeys(a.Expect) {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertPostState,
				Expected: fmt.Sprintf("field %q", key),
				Actual:   "post records have content, timestamp, upvotes, downvotes and exists",
			}
		}
		if !scalarEqual(a.Expect[key], got) {
			return &AssertionError{
				Type:     AssertPostState,
				Expected: fmt.Sprintf("%s of %s = %v", key, describePost(a), a.Expect[key]),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

func describePost(a Assertion) string {
	if a.SubPost == 0 {
		return fmt.Sprintf("post %s/%d", a.Group, a.Post)
	}
	return fmt.Sprintf("sub-post %s/%d/%d", a.Group, a.Post, a.SubPost)
}

func assertVoteFlag(ctx context.Context, forum *engine.Forum, a Assertion) error {
	group, err := model.ParseGroupID(a.Group)
	if err != nil {
		return err
	}
	voter, err := ResolveAccount(a.Voter)
	if err != nil {
		return err
	}

	var voted bool
	if a.SubPost == 0 {
		voted, err = forum.HasUserVotedOnPost(ctx, voter, group, model.PostID(a.Post))
	} else {
		voted, err = forum.HasUserVotedOnSubPost(ctx, voter, group, model.PostID(a.Post), model.SubPostID(a.SubPost))
	}
	if err != nil {
		return err
	}
	if voted == a.Voted {
		return nil
	}
	return &AssertionError{
		Type:     AssertVoteFlag,
		Expected: fmt.Sprintf("%s voted on %s = %t", a.Voter, describePost(a), a.Voted),
		Actual:   fmt.Sprintf("%t", voted),
	}
}

func assertCounter(ctx context.Context, forum *engine.Forum, a Assertion) error {
	var (
		got uint64
		err error
	)
	switch a.Counter {
	case CounterGroups:
		got, err = forum.GroupCounter(ctx)
	default:
		group, perr := model.ParseGroupID(a.Group)
		if perr != nil {
			return perr
		}
		got, err = forum.GroupPostCounter(ctx, group)
	}
	if err != nil {
		return err
	}
	if got == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertCounter,
		Expected: fmt.Sprintf("%s = %d", a.Counter, a.Value),
		Actual:   fmt.Sprintf("%d", got),
	}
}

// EvaluateAssertions evaluates all assertions against the result and the
// forum's final state. Returns a message per failed assertion.
func EvaluateAssertions(ctx context.Context, forum *engine.Forum, result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result.Events, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Events, a)
		case AssertEventContains:
			err = assertEventContains(result.Events, a)
		case AssertPostState:
			err = assertPostState(ctx, forum, a)
		case AssertVoteFlag:
			err = assertVoteFlag(ctx, forum, a)
		case AssertCounter:
			err = assertCounter(ctx, forum, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errors
}
