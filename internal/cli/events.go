package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/model"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After uint64
	Limit int
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the notification log",
		Long: `Print persisted notifications in sequence order.

Examples:
  ombu events
  ombu events --after 10 --limit 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit < 0 {
				return NewExitError(ExitCommandError, "--limit must be non-negative")
			}
			return withSession(cmd, rootOpts, func(s *session) error {
				return s.call(false, func() (interface{}, string, error) {
					events, err := s.forum.Events(s.cmd.Context(), opts.After, opts.Limit)
					if err != nil {
						return nil, "", err
					}
					if len(events) == 0 {
						return []model.Event{}, "No events.", nil
					}
					return events, formatEvents(events), nil
				})
			})
		},
	}

	cmd.Flags().Uint64Var(&opts.After, "after", 0, "only events with a greater sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 for all)")

	return cmd
}

func formatEvents(events []model.Event) string {
	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %-16s %s %s", ev.Seq, ev.Type, ev.CallID, ev.Payload)
	}
	return b.String()
}
