// Package storagetest holds the conformance suite every storage backend runs.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// Suite exercises a storage.Storage. Open must return a fresh, empty store.
type Suite struct {
	suite.Suite
	Open func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Open(s.T())
}

func (s *Suite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func (s *Suite) update(fn func(storage.Writer) error) {
	s.T().Helper()
	s.Require().NoError(s.store.Update(s.ctx, fn))
}

func (s *Suite) view(fn func(storage.Reader) error) {
	s.T().Helper()
	s.Require().NoError(s.store.View(s.ctx, fn))
}

func (s *Suite) TestLedgerNotFoundBeforeWrite() {
	s.view(func(r storage.Reader) error {
		_, err := r.Ledger()
		s.ErrorIs(err, storage.ErrNotFound)
		return nil
	})
}

func (s *Suite) TestLedgerRoundTrip() {
	want := model.Ledger{Oracle: alice, Admin: bob, GroupCounter: 3}
	s.update(func(w storage.Writer) error { return w.SetLedger(want) })

	s.view(func(r storage.Reader) error {
		got, err := r.Ledger()
		s.Require().NoError(err)
		s.Equal(want, got)
		return nil
	})

	want.Admin = alice
	s.update(func(w storage.Writer) error { return w.SetLedger(want) })
	s.view(func(r storage.Reader) error {
		got, err := r.Ledger()
		s.Require().NoError(err)
		s.Equal(alice, got.Admin)
		return nil
	})
}

func (s *Suite) TestAbsentKeysReadAsZero() {
	g := model.NewGroupID(9)
	key := model.MainPostKey(g, 1)
	s.view(func(r storage.Reader) error {
		name, err := r.GroupName(g)
		s.Require().NoError(err)
		s.Empty(name)

		counter, err := r.PostCounter(g)
		s.Require().NoError(err)
		s.Zero(counter)

		post, err := r.Post(key)
		s.Require().NoError(err)
		s.False(post.Exists())
		s.Equal(model.Post{}, post)

		voted, err := r.VoteFlag(alice, key)
		s.Require().NoError(err)
		s.False(voted)

		groups, err := r.Groups()
		s.Require().NoError(err)
		s.Empty(groups)

		seq, err := r.LastEventSeq()
		s.Require().NoError(err)
		s.Zero(seq)
		return nil
	})
}

func (s *Suite) TestGroupsKeepOrder() {
	ids := []model.GroupID{model.NewGroupID(5), model.NewGroupID(2), model.NewGroupID(7)}
	s.update(func(w storage.Writer) error {
		for _, g := range ids[:2] {
			if err := w.AppendGroup(g); err != nil {
				return err
			}
		}
		return w.SetGroupName(ids[0], "five")
	})
	s.update(func(w storage.Writer) error { return w.AppendGroup(ids[2]) })

	s.view(func(r storage.Reader) error {
		got, err := r.Groups()
		s.Require().NoError(err)
		s.Equal(ids, got)

		name, err := r.GroupName(ids[0])
		s.Require().NoError(err)
		s.Equal("five", name)
		return nil
	})
}

func (s *Suite) TestLargeGroupIDKeys() {
	big, err := model.ParseGroupID("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	s.Require().NoError(err)
	small := model.NewGroupID(1)

	s.update(func(w storage.Writer) error {
		if err := w.SetPostCounter(big, 4); err != nil {
			return err
		}
		return w.PutPost(model.MainPostKey(big, 4), model.Post{Content: "x", Timestamp: 1})
	})

	s.view(func(r storage.Reader) error {
		c, err := r.PostCounter(big)
		s.Require().NoError(err)
		s.Equal(uint64(4), c)

		c, err = r.PostCounter(small)
		s.Require().NoError(err)
		s.Zero(c)

		p, err := r.Post(model.MainPostKey(big, 4))
		s.Require().NoError(err)
		s.Equal("x", p.Content)
		return nil
	})
}

func (s *Suite) TestPostsAndSubPostsAreDistinct() {
	g := model.NewGroupID(1)
	main := model.Post{Content: "main", Timestamp: 100, Upvotes: 2}
	sub := model.Post{Content: "sub", Timestamp: 101, Downvotes: 1}
	s.update(func(w storage.Writer) error {
		if err := w.PutPost(model.MainPostKey(g, 1), main); err != nil {
			return err
		}
		return w.PutPost(model.SubPostKey(g, 1, model.FixedSubPostID), sub)
	})

	s.view(func(r storage.Reader) error {
		got, err := r.Post(model.MainPostKey(g, 1))
		s.Require().NoError(err)
		s.Equal(main, got)

		got, err = r.Post(model.SubPostKey(g, 1, model.FixedSubPostID))
		s.Require().NoError(err)
		s.Equal(sub, got)
		return nil
	})

	// overwrite
	sub.Content = "sub2"
	sub.Upvotes = 0
	s.update(func(w storage.Writer) error {
		return w.PutPost(model.SubPostKey(g, 1, model.FixedSubPostID), sub)
	})
	s.view(func(r storage.Reader) error {
		got, err := r.Post(model.SubPostKey(g, 1, model.FixedSubPostID))
		s.Require().NoError(err)
		s.Equal(sub, got)
		return nil
	})
}

func (s *Suite) TestVoteFlagsPerVoterAndKey() {
	g := model.NewGroupID(1)
	k1 := model.MainPostKey(g, 1)
	k2 := model.SubPostKey(g, 1, 1)
	s.update(func(w storage.Writer) error { return w.SetVoteFlag(alice, k1, true) })

	s.view(func(r storage.Reader) error {
		for _, tc := range []struct {
			voter model.Address
			key   model.PostKey
			want  bool
		}{
			{alice, k1, true},
			{alice, k2, false},
			{bob, k1, false},
		} {
			got, err := r.VoteFlag(tc.voter, tc.key)
			s.Require().NoError(err)
			s.Equal(tc.want, got, "voter %s key %+v", tc.voter.Hex(), tc.key)
		}
		return nil
	})

	s.update(func(w storage.Writer) error {
		if err := w.SetVoteFlag(alice, k1, false); err != nil {
			return err
		}
		// clearing an absent flag is harmless
		return w.SetVoteFlag(bob, k2, false)
	})
	s.view(func(r storage.Reader) error {
		got, err := r.VoteFlag(alice, k1)
		s.Require().NoError(err)
		s.False(got)
		return nil
	})
}

func (s *Suite) TestUpdateRollsBackOnError() {
	g := model.NewGroupID(1)
	boom := errors.New("boom")
	err := s.store.Update(s.ctx, func(w storage.Writer) error {
		if err := w.SetPostCounter(g, 1); err != nil {
			return err
		}
		if err := w.PutPost(model.MainPostKey(g, 1), model.Post{Content: "a", Timestamp: 1}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	s.view(func(r storage.Reader) error {
		c, err := r.PostCounter(g)
		s.Require().NoError(err)
		s.Zero(c)

		p, err := r.Post(model.MainPostKey(g, 1))
		s.Require().NoError(err)
		s.False(p.Exists())
		return nil
	})
}

func (s *Suite) TestUpdateSeesOwnWrites() {
	g := model.NewGroupID(3)
	s.update(func(w storage.Writer) error {
		if err := w.SetPostCounter(g, 8); err != nil {
			return err
		}
		c, err := w.PostCounter(g)
		s.Require().NoError(err)
		s.Equal(uint64(8), c)
		return nil
	})
}

func testEvent(s *Suite, seq uint64) model.Event {
	ev, err := model.NewEvent(seq, "call-1", model.PostCreated{
		GroupID:   model.NewGroupID(1),
		PostID:    model.PostID(seq),
		Timestamp: 1700000000,
	})
	s.Require().NoError(err)
	return ev
}

func (s *Suite) TestEventsGaplessAndOrdered() {
	s.update(func(w storage.Writer) error {
		for seq := uint64(1); seq <= 3; seq++ {
			if err := w.AppendEvent(testEvent(s, seq)); err != nil {
				return err
			}
		}
		return nil
	})
	s.update(func(w storage.Writer) error { return w.AppendEvent(testEvent(s, 4)) })

	err := s.store.Update(s.ctx, func(w storage.Writer) error {
		return w.AppendEvent(testEvent(s, 6))
	})
	s.Error(err, "seq gap must be rejected")

	s.view(func(r storage.Reader) error {
		last, err := r.LastEventSeq()
		s.Require().NoError(err)
		s.Equal(uint64(4), last)

		all, err := r.Events(0, 0)
		s.Require().NoError(err)
		s.Require().Len(all, 4)
		for i, ev := range all {
			s.Equal(uint64(i+1), ev.Seq)
			s.Equal(testEvent(s, ev.Seq), ev)
		}

		page, err := r.Events(1, 2)
		s.Require().NoError(err)
		s.Require().Len(page, 2)
		s.Equal(uint64(2), page[0].Seq)
		s.Equal(uint64(3), page[1].Seq)

		tail, err := r.Events(4, 10)
		s.Require().NoError(err)
		s.Empty(tail)
		return nil
	})
}

func (s *Suite) TestClosedStore() {
	s.Require().NoError(s.store.Close())
	err := s.store.View(s.ctx, func(storage.Reader) error { return nil })
	s.ErrorIs(err, storage.ErrClosed)
	err = s.store.Update(s.ctx, func(storage.Writer) error { return nil })
	s.ErrorIs(err, storage.ErrClosed)
}
