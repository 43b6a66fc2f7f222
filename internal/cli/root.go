package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
// Empty string flags fall back to the config file, then to schema defaults.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	Database    string
	Backend     string
	OracleState string
	Sender      string
	Metrics     bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ombu CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ombu",
		Short: "Ombu - anonymous group forum",
		Long: `Ombu is an anonymous forum where members of a group post, reply and vote
without revealing who they are. Membership is checked by a membership oracle;
this binary uses a local oracle whose state is kept in a YAML file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	flags.StringVar(&opts.Database, "db", "", "sqlite file or badger directory")
	flags.StringVar(&opts.Backend, "backend", "", "storage backend (sqlite|badger)")
	flags.StringVar(&opts.OracleState, "oracle-state", "", "local oracle state file")
	flags.StringVar(&opts.Sender, "sender", "", "caller address for admin and vote commands")
	flags.BoolVar(&opts.Metrics, "metrics", false, "print call metrics to stderr")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewVoteCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
