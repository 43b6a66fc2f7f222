package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

func TestVoteOnPost(t *testing.T) {
	m := newRecordingMetrics()
	fx := initialized(t, WithMetrics(m))
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")

	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	got := fx.getPost(bootstrap, 1)
	assert.Equal(t, uint32(1), got.Upvotes)
	assert.Zero(t, got.Downvotes)

	voted, err := fx.forum.HasUserVotedOnPost(fx.ctx, alice, bootstrap, 1)
	require.NoError(t, err)
	assert.True(t, voted)

	evs := fx.events()
	require.Len(t, evs, 2)
	assert.Equal(t, model.EventVoteCast, evs[1].Type)
	assert.JSONEq(t, `{"groupId":"1","postId":1,"voter":"`+alice.Hex()+`","isUpvote":true}`, string(evs[1].Payload))

	assert.Equal(t, 1, m.votes["post/up"])
}

func TestVoteOnPost_AlreadyVoted(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	// the flag is per voter, not per direction
	err := fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, false, c)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	got := fx.getPost(bootstrap, 1)
	assert.Equal(t, uint32(1), got.Upvotes)
	assert.Zero(t, got.Downvotes)
	assert.Len(t, fx.events(), 2)
}

func TestVoteOnPost_NotMember(t *testing.T) {
	fx := initialized(t)
	fx.post(bootstrap, "hello")

	err := fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, model.NewCommitment(404))
	assert.ErrorIs(t, err, ErrUserNotGroupMember)
	assert.Zero(t, fx.getPost(bootstrap, 1).Upvotes)
}

func TestVoteOnPost_MembershipCheckedBeforeExistence(t *testing.T) {
	fx := initialized(t)

	err := fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 9, true, model.NewCommitment(404))
	assert.ErrorIs(t, err, ErrUserNotGroupMember)

	c := fx.member(bootstrap, 1)
	err = fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 9, true, c)
	assert.ErrorIs(t, err, ErrPostDoesNotExist)
}

func TestVote_CommitmentNotBoundToSender(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")

	// any sender may present any member commitment; flags key on the sender
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, bob, bootstrap, 1, true, c))
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, carol, bootstrap, 1, false, c))

	got := fx.getPost(bootstrap, 1)
	assert.Equal(t, uint32(2), got.Upvotes)
	assert.Equal(t, uint32(1), got.Downvotes)
}

func TestDeleteVoteOnPost(t *testing.T) {
	m := newRecordingMetrics()
	fx := initialized(t, WithMetrics(m))
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	require.NoError(t, fx.forum.DeleteVoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	got := fx.getPost(bootstrap, 1)
	assert.Zero(t, got.Upvotes)
	voted, err := fx.forum.HasUserVotedOnPost(fx.ctx, alice, bootstrap, 1)
	require.NoError(t, err)
	assert.False(t, voted)

	assert.Equal(t, []model.EventType{model.EventPostCreated, model.EventVoteCast}, eventTypes(fx.events()),
		"deleting a vote emits nothing")
	assert.Equal(t, 1, m.deleted["post/up"])

	// the voter may vote again
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, false, c))
	assert.Equal(t, uint32(1), fx.getPost(bootstrap, 1).Downvotes)
}

func TestDeleteVoteOnPost_HasNotVoted(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")

	err := fx.forum.DeleteVoteOnPost(fx.ctx, alice, bootstrap, 1, true, c)
	assert.ErrorIs(t, err, ErrHasNotVoted)
}

func TestDeleteVoteOnPost_WrongDirectionUnderflows(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	err := fx.forum.DeleteVoteOnPost(fx.ctx, alice, bootstrap, 1, false, c)
	assert.ErrorIs(t, err, ErrVoteCountUnderflow)

	voted, err := fx.forum.HasUserVotedOnPost(fx.ctx, alice, bootstrap, 1)
	require.NoError(t, err)
	assert.True(t, voted, "a rejected delete leaves the flag set")
	assert.Equal(t, uint32(1), fx.getPost(bootstrap, 1).Upvotes)
}

func TestDeleteVoteOnPost_WrongDirectionCorruptsTally(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")

	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, bob, bootstrap, 1, false, c))

	// alice withdraws bob's downvote instead of her own upvote
	require.NoError(t, fx.forum.DeleteVoteOnPost(fx.ctx, alice, bootstrap, 1, false, c))
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	got := fx.getPost(bootstrap, 1)
	assert.Equal(t, uint32(2), got.Upvotes)
	assert.Zero(t, got.Downvotes)
}

func TestVoteOnPost_Overflow(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "hello")

	key := model.MainPostKey(bootstrap, 1)
	require.NoError(t, fx.store.Update(fx.ctx, func(w storage.Writer) error {
		p, err := w.Post(key)
		if err != nil {
			return err
		}
		p.Upvotes = math.MaxUint32
		return w.PutPost(key, p)
	}))

	err := fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c)
	assert.ErrorIs(t, err, ErrVoteCountOverflow)
	assert.Equal(t, uint32(math.MaxUint32), fx.getPost(bootstrap, 1).Upvotes)

	voted, err := fx.forum.HasUserVotedOnPost(fx.ctx, alice, bootstrap, 1)
	require.NoError(t, err)
	assert.False(t, voted)

	// the other direction is unaffected
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, false, c))
}

func TestVoteOnSubPost(t *testing.T) {
	m := newRecordingMetrics()
	fx := initialized(t, WithMetrics(m))
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "main")
	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "reply")
	require.NoError(t, err)

	require.NoError(t, fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, false, c))

	assert.Equal(t, uint32(1), fx.getSubPost(bootstrap, 1).Downvotes)
	assert.Zero(t, fx.getPost(bootstrap, 1).Downvotes, "main post counts are separate")

	onMain, err := fx.forum.HasUserVotedOnPost(fx.ctx, alice, bootstrap, 1)
	require.NoError(t, err)
	assert.False(t, onMain)

	evs := fx.events()
	require.Len(t, evs, 3)
	assert.Equal(t, model.EventSubPostVoteCast, evs[2].Type)
	assert.JSONEq(t,
		`{"groupId":"1","postId":1,"subPostId":1,"voter":"`+alice.Hex()+`","isUpvote":false}`,
		string(evs[2].Payload))

	// a main-post vote by the same voter is independent
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	require.NoError(t, fx.forum.DeleteVoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, false, c))
	assert.Zero(t, fx.getSubPost(bootstrap, 1).Downvotes)
	assert.Equal(t, uint32(1), fx.getPost(bootstrap, 1).Upvotes)

	assert.Equal(t, 1, m.votes["sub_post/down"])
	assert.Equal(t, 1, m.deleted["sub_post/down"])
}

func TestVoteOnSubPost_Missing(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "main")

	err := fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, true, c)
	assert.ErrorIs(t, err, ErrPostDoesNotExist)

	err = fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 2, true, c)
	assert.ErrorIs(t, err, ErrPostDoesNotExist)
}

func TestDeleteVoteOnSubPost_HasNotVoted(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "main")
	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "reply")
	require.NoError(t, err)
	require.NoError(t, fx.forum.VoteOnPost(fx.ctx, alice, bootstrap, 1, true, c))

	err = fx.forum.DeleteVoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, true, c)
	assert.ErrorIs(t, err, ErrHasNotVoted, "a main-post vote is not a sub-post vote")
	assert.Equal(t, uint32(1), fx.getPost(bootstrap, 1).Upvotes)
}

func TestDeleteVoteOnSubPost_WrongDirectionUnderflows(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "main")
	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "reply")
	require.NoError(t, err)
	require.NoError(t, fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, true, c))

	err = fx.forum.DeleteVoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, false, c)
	assert.ErrorIs(t, err, ErrVoteCountUnderflow)

	voted, err := fx.forum.HasUserVotedOnSubPost(fx.ctx, alice, bootstrap, 1, 1)
	require.NoError(t, err)
	assert.True(t, voted, "a rejected delete leaves the flag set")
	got := fx.getSubPost(bootstrap, 1)
	assert.Equal(t, uint32(1), got.Upvotes)
	assert.Zero(t, got.Downvotes)
}

func TestVoteOnSubPost_SlotZeroIsNotTheMainPost(t *testing.T) {
	fx := initialized(t)
	c := fx.member(bootstrap, 1)
	fx.post(bootstrap, "main")

	err := fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 0, true, c)
	assert.ErrorIs(t, err, ErrPostDoesNotExist)
	assert.Zero(t, fx.getPost(bootstrap, 1).Upvotes)

	err = fx.forum.DeleteVoteOnSubPost(fx.ctx, alice, bootstrap, 1, 0, true, c)
	assert.ErrorIs(t, err, ErrPostDoesNotExist)
}
