package model

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Topics(t *testing.T) {
	types := []EventType{EventChangeAdmin, EventPostCreated, EventSubPostCreated, EventVoteCast, EventSubPostVoteCast}
	seen := make(map[string]bool)
	for _, typ := range types {
		require.NotEmpty(t, typ.Signature(), typ)
		assert.Equal(t, crypto.Keccak256Hash([]byte(typ.Signature())), typ.Topic())
		seen[typ.Topic().Hex()] = true
	}
	assert.Len(t, seen, len(types))
}

func TestNewEvent_PostCreated(t *testing.T) {
	ev, err := NewEvent(3, "call-1", PostCreated{GroupID: NewGroupID(1), PostID: 2, Timestamp: 1700000000})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), ev.Seq)
	assert.Equal(t, "call-1", ev.CallID)
	assert.Equal(t, EventPostCreated, ev.Type)
	assert.Equal(t, `{"groupId":"1","postId":2,"timestamp":1700000000}`, string(ev.Payload))
	assert.Len(t, ev.ID, 64)

	fields, err := ev.Fields()
	require.NoError(t, err)
	assert.Equal(t, "1", fields["groupId"])
	assert.Equal(t, json.Number("2"), fields["postId"])
}

func TestNewEvent_IDDependsOnSeqAndCall(t *testing.T) {
	n := VoteCast{GroupID: NewGroupID(1), PostID: 1, IsUpvote: true}
	a, err := NewEvent(1, "c", n)
	require.NoError(t, err)
	b, err := NewEvent(2, "c", n)
	require.NoError(t, err)
	c, err := NewEvent(1, "d", n)
	require.NoError(t, err)
	again, err := NewEvent(1, "c", n)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, a.ID, again.ID)
}

func TestNotificationFields(t *testing.T) {
	voter := mustAddress(t, "0x00000000000000000000000000000000000000bb")
	got, err := MarshalCanonical(SubPostVoteCast{
		GroupID:   NewGroupID(1),
		PostID:    4,
		SubPostID: FixedSubPostID,
		Voter:     voter,
		IsUpvote:  false,
	}.Fields())
	require.NoError(t, err)
	assert.Equal(t,
		`{"groupId":"1","isUpvote":false,"postId":4,"subPostId":1,"voter":"`+voter.Hex()+`"}`,
		string(got))
}

func mustAddress(t *testing.T, s string) Address {
	t.Helper()
	a, err := ParseAddress(s)
	require.NoError(t, err)
	return a
}
