package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// VoteOnPost records sender's vote on a main post.
func (f *Forum) VoteOnPost(ctx context.Context, sender model.Address, group model.GroupID, post model.PostID, isUpvote bool, commitment model.Commitment) error {
	return f.run(ctx, OpVoteOnPost, func(c *call) error {
		return c.vote(sender, model.MainPostKey(group, post), false, isUpvote, commitment, true)
	})
}

// VoteOnSubPost records sender's vote on a sub-post.
func (f *Forum) VoteOnSubPost(ctx context.Context, sender model.Address, group model.GroupID, post model.PostID, sub model.SubPostID, isUpvote bool, commitment model.Commitment) error {
	return f.run(ctx, OpVoteOnSubPost, func(c *call) error {
		return c.vote(sender, model.SubPostKey(group, post, sub), true, isUpvote, commitment, true)
	})
}

// DeleteVoteOnPost withdraws sender's vote on a main post, decrementing the
// counter named by isUpvote.
func (f *Forum) DeleteVoteOnPost(ctx context.Context, sender model.Address, group model.GroupID, post model.PostID, isUpvote bool, commitment model.Commitment) error {
	return f.run(ctx, OpDeleteVoteOnPost, func(c *call) error {
		return c.vote(sender, model.MainPostKey(group, post), false, isUpvote, commitment, false)
	})
}

// DeleteVoteOnSubPost withdraws sender's vote on a sub-post, decrementing the
// counter named by isUpvote.
func (f *Forum) DeleteVoteOnSubPost(ctx context.Context, sender model.Address, group model.GroupID, post model.PostID, sub model.SubPostID, isUpvote bool, commitment model.Commitment) error {
	return f.run(ctx, OpDeleteVoteOnSubPost, func(c *call) error {
		return c.vote(sender, model.SubPostKey(group, post, sub), true, isUpvote, commitment, false)
	})
}

// vote casts (cast=true) or deletes a vote on key. The order of checks is
// membership, existence, flag; then the tally, the flag and the event.
func (c *call) vote(sender model.Address, key model.PostKey, sub, isUpvote bool, commitment model.Commitment, cast bool) error {
	kind := metrics.KindPost
	if sub {
		kind = metrics.KindSubPost
	}
	details := map[string]string{
		"voter": sender.Hex(),
		"group": key.Group.String(),
		"post":  fmt.Sprint(key.Post),
	}
	c.set("voter", sender.Hex())
	c.set("group", key.Group.String())
	c.set("post", uint64(key.Post))
	c.set("upvote", isUpvote)
	if sub {
		details["sub_post"] = fmt.Sprint(key.SubPost)
		c.set("sub_post", uint64(key.SubPost))
	}

	if _, err := c.ledger(); err != nil {
		return err
	}

	member, err := c.f.oracle.HasMember(c.ctx, key.Group, commitment)
	if err != nil {
		return oracleError("has member", err)
	}
	if !member {
		return newError(CodeUserNotGroupMember, "commitment is not a group member", map[string]string{
			"group":      key.Group.String(),
			"commitment": commitment.String(),
		})
	}

	err = c.update(func(w storage.Writer) error {
		post, err := w.Post(key)
		if err != nil {
			return err
		}
		// sub-post slot 0 is the main post's key and never a sub-post
		if !post.Exists() || (sub && !key.IsSubPost()) {
			return newError(CodePostDoesNotExist, "post does not exist", details)
		}

		voted, err := w.VoteFlag(sender, key)
		if err != nil {
			return err
		}
		if cast && voted {
			return newError(CodeAlreadyVoted, "voter has already voted", details)
		}
		if !cast && !voted {
			return newError(CodeHasNotVoted, "voter has not voted", details)
		}

		if cast {
			err = increment(&post, isUpvote, details)
		} else {
			err = decrement(&post, isUpvote, details)
		}
		if err != nil {
			return err
		}
		if err := w.PutPost(key, post); err != nil {
			return err
		}
		if err := w.SetVoteFlag(sender, key, cast); err != nil {
			return err
		}

		if !cast {
			return nil
		}
		if sub {
			return c.emit(w, model.SubPostVoteCast{
				GroupID:   key.Group,
				PostID:    key.Post,
				SubPostID: key.SubPost,
				Voter:     sender,
				IsUpvote:  isUpvote,
			})
		}
		return c.emit(w, model.VoteCast{
			GroupID:  key.Group,
			PostID:   key.Post,
			Voter:    sender,
			IsUpvote: isUpvote,
		})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", c.op, err)
	}

	if cast {
		c.f.metrics.VoteCast(kind, isUpvote)
	} else {
		c.f.metrics.VoteDeleted(kind, isUpvote)
	}
	return nil
}

func counter(p *model.Post, isUpvote bool) (*uint32, string) {
	if isUpvote {
		return &p.Upvotes, "upvotes"
	}
	return &p.Downvotes, "downvotes"
}

func increment(p *model.Post, isUpvote bool, details map[string]string) error {
	n, name := counter(p, isUpvote)
	if *n == math.MaxUint32 {
		return newError(CodeVoteCountOverflow, name+" would overflow", details)
	}
	*n++
	return nil
}

func decrement(p *model.Post, isUpvote bool, details map[string]string) error {
	n, name := counter(p, isUpvote)
	if *n == 0 {
		return newError(CodeVoteCountUnderflow, name+" would underflow", details)
	}
	*n--
	return nil
}
