package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventType names a notification kind.
type EventType string

const (
	EventChangeAdmin     EventType = "ChangeAdmin"
	EventPostCreated     EventType = "PostCreated"
	EventSubPostCreated  EventType = "SubPostCreated"
	EventVoteCast        EventType = "VoteCast"
	EventSubPostVoteCast EventType = "SubPostVoteCast"
)

// eventSignatures map each type to its ABI-style signature, the source of its topic.
var eventSignatures = map[EventType]string{
	EventChangeAdmin:     "ChangeAdmin(address)",
	EventPostCreated:     "PostCreated(uint256,uint256,uint32)",
	EventSubPostCreated:  "SubPostCreated(uint256,uint256,uint256,uint32)",
	EventVoteCast:        "VoteCast(uint256,uint256,address,bool)",
	EventSubPostVoteCast: "SubPostVoteCast(uint256,uint256,uint256,address,bool)",
}

// Signature returns the ABI-style signature, or "" for unknown types.
func (t EventType) Signature() string {
	return eventSignatures[t]
}

// Topic returns keccak256 of the signature.
func (t EventType) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(t.Signature()))
}

// Event is a persisted notification.
// Seq is gapless from 1 and assigned inside the writing transaction.
type Event struct {
	Seq     uint64          `json:"seq"`
	ID      string          `json:"id"`
	CallID  string          `json:"call_id"`
	Type    EventType       `json:"type"`
	Topic   common.Hash     `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Fields decodes the canonical payload. Numbers decode as json.Number.
func (e Event) Fields() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return fields, nil
}

// Notification is the typed form of an event before it is sequenced.
type Notification interface {
	EventType() EventType
	Fields() map[string]any
}

// NewEvent sequences a notification into a persistable Event.
func NewEvent(seq uint64, callID string, n Notification) (Event, error) {
	payload, err := MarshalCanonical(n.Fields())
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", n.EventType(), err)
	}
	id, err := EventID(seq, callID, n.EventType(), payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Seq:     seq,
		ID:      id,
		CallID:  callID,
		Type:    n.EventType(),
		Topic:   n.EventType().Topic(),
		Payload: payload,
	}, nil
}

// ChangeAdmin is emitted when the forum admin is replaced.
type ChangeAdmin struct {
	NewAdmin Address
}

func (ChangeAdmin) EventType() EventType { return EventChangeAdmin }

func (n ChangeAdmin) Fields() map[string]any {
	return map[string]any{"newAdmin": n.NewAdmin.Hex()}
}

// PostCreated is emitted when a main post is stored.
type PostCreated struct {
	GroupID   GroupID
	PostID    PostID
	Timestamp uint32
}

func (PostCreated) EventType() EventType { return EventPostCreated }

func (n PostCreated) Fields() map[string]any {
	return map[string]any{
		"groupId":   n.GroupID.String(),
		"postId":    uint64(n.PostID),
		"timestamp": n.Timestamp,
	}
}

// SubPostCreated is emitted when a sub-post is stored.
type SubPostCreated struct {
	GroupID   GroupID
	PostID    PostID
	SubPostID SubPostID
	Timestamp uint32
}

func (SubPostCreated) EventType() EventType { return EventSubPostCreated }

func (n SubPostCreated) Fields() map[string]any {
	return map[string]any{
		"groupId":   n.GroupID.String(),
		"postId":    uint64(n.PostID),
		"subPostId": uint64(n.SubPostID),
		"timestamp": n.Timestamp,
	}
}

// VoteCast is emitted when a vote on a main post is recorded.
type VoteCast struct {
	GroupID  GroupID
	PostID   PostID
	Voter    Address
	IsUpvote bool
}

func (VoteCast) EventType() EventType { return EventVoteCast }

func (n VoteCast) Fields() map[string]any {
	return map[string]any{
		"groupId":  n.GroupID.String(),
		"postId":   uint64(n.PostID),
		"voter":    n.Voter.Hex(),
		"isUpvote": n.IsUpvote,
	}
}

// SubPostVoteCast is emitted when a vote on a sub-post is recorded.
type SubPostVoteCast struct {
	GroupID   GroupID
	PostID    PostID
	SubPostID SubPostID
	Voter     Address
	IsUpvote  bool
}

func (SubPostVoteCast) EventType() EventType { return EventSubPostVoteCast }

func (n SubPostVoteCast) Fields() map[string]any {
	return map[string]any{
		"groupId":   n.GroupID.String(),
		"postId":    uint64(n.PostID),
		"subPostId": uint64(n.SubPostID),
		"voter":     n.Voter.Hex(),
		"isUpvote":  n.IsUpvote,
	}
}
