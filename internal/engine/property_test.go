package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle/local"
	"github.com/roach88/ombu/internal/storage/sqlite"
	"github.com/roach88/ombu/internal/testutil"
)

// tally is the reference model of one post's votes.
type tally struct {
	up, down uint32
	voted    map[model.Address]bool
}

func newPropertyForum(t *rapid.T) (*Forum, func()) {
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	f := New(s, local.New(forumAddr),
		WithClock(testutil.NewStepClock(0, 1)),
		WithCallIDs(testutil.NewSequentialCallIDs("call")))
	require.NoError(t, f.Init(context.Background(), adminAddr, oracleAddr))
	return f, func() { s.Close() }
}

func TestProperty_VotesMatchReferenceModel(t *testing.T) {
	voters := []model.Address{alice, bob, carol}

	rapid.Check(t, func(t *rapid.T) {
		f, done := newPropertyForum(t)
		defer done()
		ctx := context.Background()

		c := model.NewCommitment(1)
		require.NoError(t, f.AddMember(ctx, bootstrap, c))

		var nullifier uint64
		posts := map[model.PostID]*tally{}
		events := 0

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "action") {
			case 0:
				nullifier++
				id, err := f.CreateMainPost(ctx, bootstrap, model.Proof{
					MerkleTreeDepth: model.NewWord(16),
					Nullifier:       model.NewWord(nullifier),
				}, "p")
				require.NoError(t, err)
				require.Equal(t, model.PostID(len(posts)+1), id)
				posts[id] = &tally{voted: map[model.Address]bool{}}
				events++

			case 1, 2:
				cast := rapid.IntRange(1, 2).Draw(t, "kind") == 1
				voter := rapid.SampledFrom(voters).Draw(t, "voter")
				id := model.PostID(rapid.IntRange(1, len(posts)+1).Draw(t, "post"))
				up := rapid.Bool().Draw(t, "up")

				var err error
				if cast {
					err = f.VoteOnPost(ctx, voter, bootstrap, id, up, c)
				} else {
					err = f.DeleteVoteOnPost(ctx, voter, bootstrap, id, up, c)
				}

				want := expectVote(posts[id], voter, up, cast)
				if want == "" {
					require.NoError(t, err)
					if cast {
						events++
					}
				} else {
					require.Equal(t, want, CodeOf(err), "err=%v", err)
				}
			}
		}

		for id, want := range posts {
			got, err := f.Post(ctx, bootstrap, id)
			require.NoError(t, err)
			assert.Equal(t, want.up, got.Upvotes, "post %d upvotes", id)
			assert.Equal(t, want.down, got.Downvotes, "post %d downvotes", id)
			for _, v := range voters {
				voted, err := f.HasUserVotedOnPost(ctx, v, bootstrap, id)
				require.NoError(t, err)
				assert.Equal(t, want.voted[v], voted)
			}
		}

		evs, err := f.Events(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, evs, events)
		for i, ev := range evs {
			require.Equal(t, uint64(i+1), ev.Seq)
		}
	})
}

// expectVote applies a cast or delete to the model and returns the expected
// rejection code, or "" on success.
func expectVote(p *tally, voter model.Address, up, cast bool) ErrorCode {
	if p == nil {
		return CodePostDoesNotExist
	}
	n := &p.down
	if up {
		n = &p.up
	}
	if cast {
		if p.voted[voter] {
			return CodeAlreadyVoted
		}
		*n++
		p.voted[voter] = true
		return ""
	}
	if !p.voted[voter] {
		return CodeHasNotVoted
	}
	if *n == 0 {
		return CodeVoteCountUnderflow
	}
	*n--
	p.voted[voter] = false
	return ""
}

func TestProperty_CastThenDeleteIsNeutral(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f, done := newPropertyForum(t)
		defer done()
		ctx := context.Background()

		c := model.NewCommitment(1)
		require.NoError(t, f.AddMember(ctx, bootstrap, c))
		_, err := f.CreateMainPost(ctx, bootstrap, model.Proof{MerkleTreeDepth: model.NewWord(1)}, "p")
		require.NoError(t, err)

		up := rapid.Bool().Draw(t, "up")
		before, err := f.Post(ctx, bootstrap, 1)
		require.NoError(t, err)

		require.NoError(t, f.VoteOnPost(ctx, bob, bootstrap, 1, up, c))
		require.NoError(t, f.DeleteVoteOnPost(ctx, bob, bootstrap, 1, up, c))

		after, err := f.Post(ctx, bootstrap, 1)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestProperty_OnlyAdminCreatesGroups(t *testing.T) {
	senders := []model.Address{adminAddr, alice, bob}

	rapid.Check(t, func(t *rapid.T) {
		f, done := newPropertyForum(t)
		defer done()
		ctx := context.Background()

		created := uint64(1)
		for i, n := 0, rapid.IntRange(1, 10).Draw(t, "calls"); i < n; i++ {
			sender := rapid.SampledFrom(senders).Draw(t, "sender")
			_, err := f.CreateGroup(ctx, sender, "g")
			if sender == adminAddr {
				require.NoError(t, err)
				created++
			} else {
				require.ErrorIs(t, err, ErrNotAllowed)
			}
		}

		counter, err := f.GroupCounter(ctx)
		require.NoError(t, err)
		assert.Equal(t, created, counter)
	})
}
