package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult is the output of ombu init.
type InitResult struct {
	Admin  string `json:"admin"`
	Oracle string `json:"oracle"`
	Group  string `json:"group_id"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the forum",
		Long: `Initialize the forum with the sender as admin.

Records the oracle address, creates the bootstrap group in the oracle and
names it "Invisible Garden". Runs once per database.

Example:
  ombu init --sender 0x9999999999999999999999999999999999999999`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, runInit)
		},
	}
}

func runInit(s *session) error {
	sender, err := s.sender()
	if err != nil {
		return err
	}
	ctx := s.cmd.Context()
	orc := s.oracleAddress()

	return s.call(true, func() (interface{}, string, error) {
		if err := s.forum.Init(ctx, sender, orc); err != nil {
			return nil, "", err
		}
		groups, err := s.forum.Groups(ctx)
		if err != nil {
			return nil, "", err
		}
		res := InitResult{Admin: sender.Hex(), Oracle: orc.Hex()}
		if len(groups) > 0 {
			res.Group = groups[0].ID.String()
		}
		return res, fmt.Sprintf("Forum initialized. Admin %s, bootstrap group %s.", res.Admin, res.Group), nil
	})
}
