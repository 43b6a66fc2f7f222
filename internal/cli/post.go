package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/model"
)

// ProofOptions holds the proof flags of post create and post sub.
// The local oracle checks only the depth and nullifier.
type ProofOptions struct {
	Depth     uint64
	Root      string
	Nullifier string
	Feedback  string
}

func (p *ProofOptions) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&p.Depth, "depth", 20, "merkle tree depth")
	cmd.Flags().StringVar(&p.Root, "root", "0", "merkle tree root")
	cmd.Flags().StringVar(&p.Nullifier, "nullifier", "", "proof nullifier (default: random)")
	cmd.Flags().StringVar(&p.Feedback, "feedback", "0", "proof feedback signal")
}

// build assembles the proof. A missing nullifier gets a random 128-bit value.
func (p *ProofOptions) build() (model.Proof, error) {
	root, err := model.ParseWord(p.Root)
	if err != nil {
		return model.Proof{}, fmt.Errorf("--root: %w", err)
	}
	feedback, err := model.ParseWord(p.Feedback)
	if err != nil {
		return model.Proof{}, fmt.Errorf("--feedback: %w", err)
	}
	nullifierText := p.Nullifier
	if nullifierText == "" {
		id := uuid.New()
		nullifierText = "0x" + hex.EncodeToString(id[:])
	}
	nullifier, err := model.ParseWord(nullifierText)
	if err != nil {
		return model.Proof{}, fmt.Errorf("--nullifier: %w", err)
	}
	return model.Proof{
		MerkleTreeDepth: model.NewWord(p.Depth),
		MerkleTreeRoot:  root,
		Nullifier:       nullifier,
		Feedback:        feedback,
	}, nil
}

// NewPostCommand creates the post command group.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create and read posts",
	}
	cmd.AddCommand(newPostCreateCommand(rootOpts))
	cmd.AddCommand(newPostSubCommand(rootOpts))
	cmd.AddCommand(newPostGetCommand(rootOpts))
	cmd.AddCommand(newPostListCommand(rootOpts))
	return cmd
}

func newPostCreateCommand(rootOpts *RootOptions) *cobra.Command {
	proof := &ProofOptions{}
	cmd := &cobra.Command{
		Use:   "create <group> <content>",
		Short: "Create a main post in a group",
		Long: `Create a main post. The post is anonymous: only the proof is checked.

Example:
  ombu post create 1 "hello" --nullifier 42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				p, err := proof.build()
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(true, func() (interface{}, string, error) {
					id, err := s.forum.CreateMainPost(s.cmd.Context(), group, p, args[1])
					if err != nil {
						return nil, "", err
					}
					data := map[string]interface{}{"group_id": group.String(), "post_id": uint64(id)}
					return data, fmt.Sprintf("Created post %d in group %s.", id, group), nil
				})
			})
		},
	}
	proof.register(cmd)
	return cmd
}

func newPostSubCommand(rootOpts *RootOptions) *cobra.Command {
	proof := &ProofOptions{}
	cmd := &cobra.Command{
		Use:   "sub <group> <post> <content>",
		Short: "Write the sub-post of a main post, replacing any earlier one",
		Args:  cobra.ExactArgs(3),
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
				p, err := proof.build()
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(true, func() (interface{}, string, error) {
					id, err := s.forum.CreateSubPost(s.cmd.Context(), group, post, p, args[2])
					if err != nil {
						return nil, "", err
					}
					data := map[string]interface{}{"group_id": group.String(), "post_id": uint64(post), "sub_post_id": uint64(id)}
					return data, fmt.Sprintf("Wrote sub-post %d of post %d in group %s.", id, post, group), nil
				})
			})
		},
	}
	proof.register(cmd)
	return cmd
}

func newPostGetCommand(rootOpts *RootOptions) *cobra.Command {
	var sub uint64
	cmd := &cobra.Command{
		Use:   "get <group> <post>",
		Short: "Read a main post, or its sub-post with --sub",
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
				return s.call(false, func() (interface{}, string, error) {
					var rec model.Post
					var err error
					if cmd.Flags().Changed("sub") {
						rec, err = s.forum.SubPost(s.cmd.Context(), group, post, model.SubPostID(sub))
					} else {
						rec, err = s.forum.Post(s.cmd.Context(), group, post)
					}
					if err != nil {
						return nil, "", err
					}
					return rec, formatPost(rec), nil
				})
			})
		},
	}
	cmd.Flags().Uint64Var(&sub, "sub", uint64(model.FixedSubPostID), "sub-post id")
	return cmd
}

func newPostListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <group>",
		Short: "List the posts of a group with their sub-posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				group, err := parseGroup(args[0])
				if err != nil {
					return s.badArgs(err)
				}
				return s.call(false, func() (interface{}, string, error) {
					views, err := s.forum.GroupPosts(s.cmd.Context(), group)
					if err != nil {
						return nil, "", err
					}
					if len(views) == 0 {
						return []model.PostView{}, "No posts.", nil
					}
					var b strings.Builder
					for i, v := range views {
						if i > 0 {
							b.WriteString("\n")
						}
						fmt.Fprintf(&b, "#%d %s", v.ID, formatPost(v.Post))
						if v.SubPost.Exists() {
							fmt.Fprintf(&b, "\n  └ %s", formatPost(v.SubPost))
						}
					}
					return views, b.String(), nil
				})
			})
		},
	}
}

func formatPost(p model.Post) string {
	if !p.Exists() {
		return "(no post)"
	}
	return fmt.Sprintf("%q  +%d -%d  @%d", p.Content, p.Upvotes, p.Downvotes, p.Timestamp)
}
