package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/model"
)

// VoteOptions holds the flags shared by vote cast and vote delete.
type VoteOptions struct {
	Down       bool
	Commitment string
	SubPost    uint64
}

func (v *VoteOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&v.Down, "down", false, "downvote instead of upvote")
	cmd.Flags().StringVar(&v.Commitment, "commitment", "", "identity commitment proving group membership (required)")
	cmd.Flags().Uint64Var(&v.SubPost, "sub", 0, "vote on this sub-post instead of the main post")
	_ = cmd.MarkFlagRequired("commitment")
}

// NewVoteCommand creates the vote command group.
func NewVoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast, delete and inspect votes",
	}
	cmd.AddCommand(newVoteChangeCommand(rootOpts, true))
	cmd.AddCommand(newVoteChangeCommand(rootOpts, false))
	cmd.AddCommand(newVoteStatusCommand(rootOpts))
	return cmd
}

func newVoteChangeCommand(rootOpts *RootOptions, cast bool) *cobra.Command {
	opts := &VoteOptions{}
	use, short := "cast <group> <post>", "Vote on a post as --sender"
	if !cast {
		use, short = "delete <group> <post>", "Withdraw a vote; pass the same direction it was cast with"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				sender, err := s.sender()
				if err != nil {
					return err
				}
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				post, err := model.ParsePostID(args[1])
				if err != nil {
					return s.badArgs(err)
				}
				commitment, err := model.ParseCommitment(opts.Commitment)
				if err != nil {
					return s.badArgs(err)
				}
				up := !opts.Down
				sub := cmd.Flags().Changed("sub")

				return s.call(false, func() (interface{}, string, error) {
					ctx := s.cmd.Context()
					var err error
					switch {
					case sub && cast:
						err = s.forum.VoteOnSubPost(ctx, sender, group, post, model.SubPostID(opts.SubPost), up, commitment)
					case sub:
						err = s.forum.DeleteVoteOnSubPost(ctx, sender, group, post, model.SubPostID(opts.SubPost), up, commitment)
					case cast:
						err = s.forum.VoteOnPost(ctx, sender, group, post, up, commitment)
					default:
						err = s.forum.DeleteVoteOnPost(ctx, sender, group, post, up, commitment)
					}
					if err != nil {
						return nil, "", err
					}

					data := map[string]interface{}{
						"group_id":  group.String(),
						"post_id":   uint64(post),
						"voter":     sender.Hex(),
						"is_upvote": up,
						"cast":      cast,
					}
					target := fmt.Sprintf("post %d", post)
					if sub {
						data["sub_post_id"] = opts.SubPost
						target = fmt.Sprintf("sub-post %d of post %d", opts.SubPost, post)
					}
					verb := "Voted on"
					if !cast {
						verb = "Withdrew vote on"
					}
					return data, fmt.Sprintf("%s %s in group %s.", verb, target, group), nil
				})
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newVoteStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		voter string
		sub   uint64
	)
	cmd := &cobra.Command{
		Use:   "status <group> <post>",
		Short: "Report whether a voter has voted on a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				post, err := model.ParsePostID(args[1])
				if err != nil {
					return s.badArgs(err)
				}
				var who model.Address
				if voter != "" {
					if who, err = model.ParseAddress(voter); err != nil {
						return s.badArgs(err)
					}
				} else if who, err = s.sender(); err != nil {
					return err
				}

				return s.call(false, func() (interface{}, string, error) {
					var voted bool
					var err error
					if cmd.Flags().Changed("sub") {
						voted, err = s.forum.HasUserVotedOnSubPost(s.cmd.Context(), who, group, post, model.SubPostID(sub))
					} else {
						voted, err = s.forum.HasUserVotedOnPost(s.cmd.Context(), who, group, post)
					}
					if err != nil {
						return nil, "", err
					}
					text := "has not voted"
					if voted {
						text = "has voted"
					}
					return map[string]interface{}{"voter": who.Hex(), "voted": voted}, who.Hex() + " " + text + ".", nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&voter, "voter", "", "voter address (default: --sender)")
	cmd.Flags().Uint64Var(&sub, "sub", 0, "sub-post id")
	return cmd
}
