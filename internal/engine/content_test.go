package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle"
	"github.com/roach88/ombu/internal/oracle/local"
)

func TestCreateMainPost(t *testing.T) {
	fx := initialized(t)
	ts := fx.clock.Peek()

	id, err := fx.forum.CreateMainPost(fx.ctx, bootstrap, fx.proof(), "hello")
	require.NoError(t, err)
	assert.Equal(t, model.PostID(1), id)

	n, err := fx.forum.GroupPostCounter(fx.ctx, bootstrap)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	assert.Equal(t, model.Post{Content: "hello", Timestamp: ts}, fx.getPost(bootstrap, 1))

	evs := fx.events()
	require.Len(t, evs, 1)
	assert.Equal(t, model.EventPostCreated, evs[0].Type)
	assert.Equal(t, uint64(1), evs[0].Seq)
	assert.Equal(t, "call-2", evs[0].CallID)
	assert.Equal(t, model.EventPostCreated.Topic(), evs[0].Topic)
	assert.JSONEq(t, `{"groupId":"1","postId":1,"timestamp":1700000000}`, string(evs[0].Payload))
}

func TestCreateMainPost_ProofRejected(t *testing.T) {
	fx := initialized(t)
	p := fx.proof()
	p.MerkleTreeDepth = model.NewWord(0)

	_, err := fx.forum.CreateMainPost(fx.ctx, bootstrap, p, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProofValidationFailed)
	assert.ErrorIs(t, err, oracle.ErrInvalidDepth)
	var pe *oracle.ProofError
	assert.True(t, errors.As(err, &pe))

	n, err := fx.forum.GroupPostCounter(fx.ctx, bootstrap)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fx.events())
}

func TestCreateMainPost_BindsProofToGroup(t *testing.T) {
	fx := initialized(t)
	p := fx.proof()
	p.GroupID = model.NewGroupID(99)

	_, err := fx.forum.CreateMainPost(fx.ctx, bootstrap, p, "hello")
	require.NoError(t, err, "the group argument overrides the proof's group id")
}

func TestCreateMainPost_ReusedNullifier(t *testing.T) {
	fx := initialized(t)
	p := fx.proof()
	_, err := fx.forum.CreateMainPost(fx.ctx, bootstrap, p, "one")
	require.NoError(t, err)

	_, err = fx.forum.CreateMainPost(fx.ctx, bootstrap, p, "two")
	assert.ErrorIs(t, err, oracle.ErrNullifierUsed)
	assert.Equal(t, CodeProofValidationFailed, CodeOf(err))
}

func TestCreateMainPost_UnknownGroup(t *testing.T) {
	fx := initialized(t)
	_, err := fx.forum.CreateMainPost(fx.ctx, model.NewGroupID(7), fx.proof(), "x")
	assert.ErrorIs(t, err, ErrProofValidationFailed)
	assert.ErrorIs(t, err, oracle.ErrGroupNotFound)
}

func TestCreateSubPost(t *testing.T) {
	m := newRecordingMetrics()
	fx := initialized(t, WithMetrics(m))
	fx.post(bootstrap, "main")

	ts := fx.clock.Peek()
	sub, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "reply")
	require.NoError(t, err)
	assert.Equal(t, model.FixedSubPostID, sub)
	assert.Equal(t, model.Post{Content: "reply", Timestamp: ts}, fx.getSubPost(bootstrap, 1))

	evs := fx.events()
	require.Len(t, evs, 2)
	assert.Equal(t, model.EventSubPostCreated, evs[1].Type)
	assert.JSONEq(t, `{"groupId":"1","postId":1,"subPostId":1,"timestamp":1700000001}`, string(evs[1].Payload))

	assert.Equal(t, 1, m.posts[metrics.KindPost])
	assert.Equal(t, 1, m.posts[metrics.KindSubPost])
}

func TestCreateSubPost_SecondOverwritesFirst(t *testing.T) {
	fx := initialized(t)
	fx.post(bootstrap, "main")
	c := fx.member(bootstrap, 7)

	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "first")
	require.NoError(t, err)
	require.NoError(t, fx.forum.VoteOnSubPost(fx.ctx, alice, bootstrap, 1, 1, true, c))

	sub, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, fx.proof(), "second")
	require.NoError(t, err)
	assert.Equal(t, model.FixedSubPostID, sub)

	got := fx.getSubPost(bootstrap, 1)
	assert.Equal(t, "second", got.Content)
	assert.Zero(t, got.Upvotes, "the replacement starts with zero counts")

	voted, err := fx.forum.HasUserVotedOnSubPost(fx.ctx, alice, bootstrap, 1, 1)
	require.NoError(t, err)
	assert.True(t, voted, "flags are keyed by slot id and survive the overwrite")

	n, err := fx.forum.GroupPostCounter(fx.ctx, bootstrap)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n, "sub-posts do not advance the post counter")
}

func TestCreateSubPost_MainPostMissing(t *testing.T) {
	fx := initialized(t)
	p := fx.proof()
	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, p, "orphan")
	assert.ErrorIs(t, err, ErrMainPostDoesNotExist)
	assert.False(t, fx.getSubPost(bootstrap, 1).Exists())
	assert.Empty(t, fx.events())

	// the rejected call released its nullifier
	fx.post(bootstrap, "main")
	_, err = fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, p, "reply")
	require.NoError(t, err)
	assert.Equal(t, "reply", fx.getSubPost(bootstrap, 1).Content)
}

func TestCreateSubPost_ProofCheckedBeforeMainPost(t *testing.T) {
	fx := initialized(t)
	p := fx.proof()
	p.MerkleTreeDepth = model.NewWord(40)

	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 1, p, "x")
	assert.ErrorIs(t, err, ErrProofValidationFailed)
}

func TestReads_AbsentRecordsAreZero(t *testing.T) {
	fx := initialized(t)

	assert.Equal(t, model.Post{}, fx.getPost(bootstrap, 5))
	assert.Equal(t, model.Post{}, fx.getSubPost(bootstrap, 5))

	fx.post(bootstrap, "main")
	sub0, err := fx.forum.SubPost(fx.ctx, bootstrap, 1, 0)
	require.NoError(t, err)
	assert.False(t, sub0.Exists(), "sub-post slot 0 never reads as the main post")

	voted, err := fx.forum.HasUserVotedOnSubPost(fx.ctx, alice, bootstrap, 1, 0)
	require.NoError(t, err)
	assert.False(t, voted)

	name, err := fx.forum.GroupName(fx.ctx, model.NewGroupID(42))
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestGroupPosts(t *testing.T) {
	fx := initialized(t)
	fx.post(bootstrap, "one")
	fx.post(bootstrap, "two")
	_, err := fx.forum.CreateSubPost(fx.ctx, bootstrap, 2, fx.proof(), "reply")
	require.NoError(t, err)

	views, err := fx.forum.GroupPosts(fx.ctx, bootstrap)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, model.PostID(1), views[0].ID)
	assert.Equal(t, "one", views[0].Post.Content)
	assert.False(t, views[0].SubPost.Exists())
	assert.Equal(t, "reply", views[1].SubPost.Content)

	empty, err := fx.forum.GroupPosts(fx.ctx, model.NewGroupID(9))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCreateMainPost_VerifierRejects(t *testing.T) {
	fx := initialized(t)
	fx.oracle = local.New(forumAddr, local.WithVerifier(func(model.Proof) error {
		return errors.New("points do not verify")
	}))
	fx.forum = New(fx.store, fx.oracle, WithClock(fx.clock))

	// the fresh oracle has no groups yet
	g, err := fx.oracle.CreateGroup(fx.ctx)
	require.NoError(t, err)

	_, err = fx.forum.CreateMainPost(fx.ctx, g, fx.proof(), "x")
	assert.ErrorIs(t, err, oracle.ErrInvalidProof)
	assert.Contains(t, err.Error(), "points do not verify")
}
