package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/model"
)

// NewGroupCommand creates the group command group.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and their oracle membership",
	}
	cmd.AddCommand(newGroupCreateCommand(rootOpts))
	cmd.AddCommand(newGroupListCommand(rootOpts))
	cmd.AddCommand(newGroupNameCommand(rootOpts))
	cmd.AddCommand(newGroupCounterCommand(rootOpts))
	cmd.AddCommand(newGroupMemberCommand(rootOpts, true))
	cmd.AddCommand(newGroupMemberCommand(rootOpts, false))
	cmd.AddCommand(newGroupAdminCommand(rootOpts))
	cmd.AddCommand(newGroupAcceptAdminCommand(rootOpts))
	cmd.AddCommand(newGroupIsMemberCommand(rootOpts))
	return cmd
}

func newGroupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				sender, err := s.sender()
				if err != nil {
					return err
				}
				return s.call(true, func() (interface{}, string, error) {
					id, err := s.forum.CreateGroup(s.cmd.Context(), sender, args[0])
					if err != nil {
						return nil, "", err
					}
					return map[string]string{"group_id": id.String(), "name": args[0]},
						fmt.Sprintf("Created group %s %q.", id, args[0]), nil
				})
			})
		},
	}
}

func newGroupListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				return s.call(false, func() (interface{}, string, error) {
					groups, err := s.forum.Groups(s.cmd.Context())
					if err != nil {
						return nil, "", err
					}
					if len(groups) == 0 {
						return []model.GroupInfo{}, "No groups.", nil
					}
					lines := make([]string, len(groups))
					for i, g := range groups {
						lines[i] = fmt.Sprintf("%s\t%s\t%d posts", g.ID, g.Name, g.PostCounter)
					}
					return groups, strings.Join(lines, "\n"), nil
				})
			})
		},
	}
}

func newGroupNameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "name <group>",
		Short: "Print a group's name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(false, func() (interface{}, string, error) {
					name, err := s.forum.GroupName(s.cmd.Context(), group)
					if err != nil {
						return nil, "", err
					}
					return map[string]string{"group_id": group.String(), "name": name}, name, nil
				})
			})
		},
	}
}

func newGroupCounterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "counter <group>",
		Short: "Print the last post id assigned in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(false, func() (interface{}, string, error) {
					n, err := s.forum.GroupPostCounter(s.cmd.Context(), group)
					if err != nil {
						return nil, "", err
					}
					return map[string]interface{}{"group_id": group.String(), "post_counter": n}, fmt.Sprint(n), nil
				})
			})
		},
	}
}

// newGroupMemberCommand builds add-member or remove-member.
func newGroupMemberCommand(rootOpts *RootOptions, add bool) *cobra.Command {
	var siblings []string
	use, short := "add-member <group> <commitment>", "Add an identity commitment to a group"
	if !add {
		use, short = "remove-member <group> <commitment>", "Remove an identity commitment from a group (admin only)"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				commitment, err := model.ParseCommitment(args[1])
				if err != nil {
					return s.badArgs(err)
				}
				words := make([]model.Word, 0, len(siblings))
				for _, sib := range siblings {
					w, err := model.ParseWord(sib)
					if err != nil {
						return s.badArgs(fmt.Errorf("--siblings: %w", err))
					}
					words = append(words, w)
				}

				var sender model.Address
				if !add {
					if sender, err = s.sender(); err != nil {
						return err
					}
				}

				return s.call(true, func() (interface{}, string, error) {
					ctx := s.cmd.Context()
					var err error
					verb := "Added"
					if add {
						err = s.forum.AddMember(ctx, group, commitment)
					} else {
						verb = "Removed"
						err = s.forum.RemoveMember(ctx, sender, group, commitment, words)
					}
					if err != nil {
						return nil, "", err
					}
					data := map[string]string{"group_id": group.String(), "commitment": commitment.String()}
					return data, fmt.Sprintf("%s member %s in group %s.", verb, commitment, group), nil
				})
			})
		},
	}
	if !add {
		cmd.Flags().StringSliceVar(&siblings, "siblings", nil, "merkle proof siblings, forwarded to the oracle")
	}
	return cmd
}

func newGroupAdminCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "admin <group> <new-admin>",
		Short: "Nominate a new admin for a group in the oracle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				next, err := model.ParseAddress(args[1])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(true, func() (interface{}, string, error) {
					if err := s.forum.ChangeGroupAdmin(s.cmd.Context(), group, next); err != nil {
						return nil, "", err
					}
					return map[string]string{"group_id": group.String(), "pending_admin": next.Hex()},
						fmt.Sprintf("Nominated %s as admin of group %s.", next.Hex(), group), nil
				})
			})
		},
	}
}

func newGroupAcceptAdminCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accept-admin <group>",
		Short: "Accept a pending group admin nomination in the oracle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(true, func() (interface{}, string, error) {
					if err := s.forum.AcceptGroupAdmin(s.cmd.Context(), group); err != nil {
						return nil, "", err
					}
					return map[string]string{"group_id": group.String()}, fmt.Sprintf("Accepted admin of group %s.", group), nil
				})
			})
		},
	}
}

func newGroupIsMemberCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "is-member <group> <commitment>",
		Short: "Ask the oracle whether a commitment belongs to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				commitment, err := model.ParseCommitment(args[1])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(false, func() (interface{}, string, error) {
					member, err := s.forum.IsGroupMember(s.cmd.Context(), group, commitment)
					if err != nil {
						return nil, "", err
					}
					return map[string]interface{}{"group_id": group.String(), "member": member}, fmt.Sprint(member), nil
				})
			})
		},
	}
}
