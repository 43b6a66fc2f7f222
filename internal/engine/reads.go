package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// Reads never fail for absent state: they return zero values, including
// before Init.

func (f *Forum) view(ctx context.Context, op string, fn func(r storage.Reader) error) error {
	if err := f.store.View(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *Forum) readLedgerOrZero(ctx context.Context) (model.Ledger, error) {
	var l model.Ledger
	err := f.view(ctx, "read ledger", func(r storage.Reader) error {
		var err error
		l, err = r.Ledger()
		if errors.Is(err, storage.ErrNotFound) {
			l = model.Ledger{}
			return nil
		}
		return err
	})
	return l, err
}

// Oracle returns the oracle address recorded by Init.
func (f *Forum) Oracle(ctx context.Context) (model.Address, error) {
	l, err := f.readLedgerOrZero(ctx)
	return l.Oracle, err
}

// Admin returns the current admin.
func (f *Forum) Admin(ctx context.Context) (model.Address, error) {
	l, err := f.readLedgerOrZero(ctx)
	return l.Admin, err
}

// GroupCounter returns the number of groups created.
func (f *Forum) GroupCounter(ctx context.Context) (uint64, error) {
	l, err := f.readLedgerOrZero(ctx)
	return l.GroupCounter, err
}

// GroupPostCounter returns the last post id assigned in group.
func (f *Forum) GroupPostCounter(ctx context.Context, group model.GroupID) (uint64, error) {
	var n uint64
	err := f.view(ctx, "group post counter", func(r storage.Reader) error {
		var err error
		n, err = r.PostCounter(group)
		return err
	})
	return n, err
}

// GroupName returns group's name, "" if unknown.
func (f *Forum) GroupName(ctx context.Context, group model.GroupID) (string, error) {
	var name string
	err := f.view(ctx, "group name", func(r storage.Reader) error {
		var err error
		name, err = r.GroupName(group)
		return err
	})
	return name, err
}

// Post returns the main post, or the zero Post if it does not exist.
func (f *Forum) Post(ctx context.Context, group model.GroupID, post model.PostID) (model.Post, error) {
	var p model.Post
	err := f.view(ctx, "get post", func(r storage.Reader) error {
		var err error
		p, err = r.Post(model.MainPostKey(group, post))
		return err
	})
	return p, err
}

// SubPost returns the sub-post, or the zero Post if it does not exist.
func (f *Forum) SubPost(ctx context.Context, group model.GroupID, post model.PostID, sub model.SubPostID) (model.Post, error) {
	if sub == 0 {
		return model.Post{}, nil
	}
	var p model.Post
	err := f.view(ctx, "get sub post", func(r storage.Reader) error {
		var err error
		p, err = r.Post(model.SubPostKey(group, post, sub))
		return err
	})
	return p, err
}

// HasUserVotedOnPost reports whether user has an outstanding vote on the post.
func (f *Forum) HasUserVotedOnPost(ctx context.Context, user model.Address, group model.GroupID, post model.PostID) (bool, error) {
	var voted bool
	err := f.view(ctx, "has voted on post", func(r storage.Reader) error {
		var err error
		voted, err = r.VoteFlag(user, model.MainPostKey(group, post))
		return err
	})
	return voted, err
}

// HasUserVotedOnSubPost reports whether user has an outstanding vote on the sub-post.
func (f *Forum) HasUserVotedOnSubPost(ctx context.Context, user model.Address, group model.GroupID, post model.PostID, sub model.SubPostID) (bool, error) {
	if sub == 0 {
		return false, nil
	}
	var voted bool
	err := f.view(ctx, "has voted on sub post", func(r storage.Reader) error {
		var err error
		voted, err = r.VoteFlag(user, model.SubPostKey(group, post, sub))
		return err
	})
	return voted, err
}

// Groups lists groups in creation order with their names and post counters.
func (f *Forum) Groups(ctx context.Context) ([]model.GroupInfo, error) {
	var out []model.GroupInfo
	err := f.view(ctx, "list groups", func(r storage.Reader) error {
		ids, err := r.Groups()
		if err != nil {
			return err
		}
		out = make([]model.GroupInfo, 0, len(ids))
		for _, id := range ids {
			name, err := r.GroupName(id)
			if err != nil {
				return err
			}
			counter, err := r.PostCounter(id)
			if err != nil {
				return err
			}
			out = append(out, model.GroupInfo{ID: id, Name: name, PostCounter: counter})
		}
		return nil
	})
	return out, err
}

// GroupPosts lists posts 1..counter of group, each with its sub-post slot.
func (f *Forum) GroupPosts(ctx context.Context, group model.GroupID) ([]model.PostView, error) {
	var out []model.PostView
	err := f.view(ctx, "list group posts", func(r storage.Reader) error {
		counter, err := r.PostCounter(group)
		if err != nil {
			return err
		}
		out = make([]model.PostView, 0, counter)
		for id := model.PostID(1); uint64(id) <= counter; id++ {
			post, err := r.Post(model.MainPostKey(group, id))
			if err != nil {
				return err
			}
			sub, err := r.Post(model.SubPostKey(group, id, model.FixedSubPostID))
			if err != nil {
				return err
			}
			out = append(out, model.PostView{ID: id, Post: post, SubPost: sub})
		}
		return nil
	})
	return out, err
}

// Events returns up to limit persisted events with seq > afterSeq.
// limit <= 0 returns all of them.
func (f *Forum) Events(ctx context.Context, afterSeq uint64, limit int) ([]model.Event, error) {
	var out []model.Event
	err := f.view(ctx, "list events", func(r storage.Reader) error {
		var err error
		out, err = r.Events(afterSeq, limit)
		return err
	})
	return out, err
}
