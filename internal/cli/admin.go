package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/model"
)

// AdminInfo is the output of ombu admin show.
type AdminInfo struct {
	Admin        string `json:"admin"`
	Oracle       string `json:"oracle"`
	GroupCounter uint64 `json:"group_counter"`
}

// NewAdminCommand creates the admin command group.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Show or hand over the forum admin role",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the forum admin, oracle address and group counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return s.call(false, func() (interface{}, string, error) {
					ctx := s.cmd.Context()
					admin, err := s.forum.Admin(ctx)
					if err != nil {
						return nil, "", err
					}
					orc, err := s.forum.Oracle(ctx)
					if err != nil {
						return nil, "", err
					}
					n, err := s.forum.GroupCounter(ctx)
					if err != nil {
						return nil, "", err
					}
					info := AdminInfo{Admin: admin.Hex(), Oracle: orc.Hex(), GroupCounter: n}
					return info, fmt.Sprintf("admin:  %s\noracle: %s\ngroups: %d", info.Admin, info.Oracle, info.GroupCounter), nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "change <new-admin>",
		Short: "Hand the admin role to another address (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				sender, err := s.sender()
				if err != nil {
					return err
				}
				next, err := model.ParseAddress(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(false, func() (interface{}, string, error) {
					if err := s.forum.ChangeAdmin(s.cmd.Context(), sender, next); err != nil {
						return nil, "", err
					}
					return map[string]string{"admin": next.Hex()}, "Admin changed to " + next.Hex() + ".", nil
				})
			})
		},
	})

	return cmd
}
