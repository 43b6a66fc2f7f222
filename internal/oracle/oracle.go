// Package oracle defines the Membership Oracle the forum delegates proofs and
// group membership to.
//
// The forum never inspects proof internals. Implementations decide validity
// and membership; the forum only reacts to the answers.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ombu/internal/model"
)

// Oracle is the capability set the forum calls. Every call is made on behalf
// of the forum itself, so authorisation inside the oracle is relative to the
// forum's address.
type Oracle interface {
	CreateGroup(ctx context.Context) (model.GroupID, error)
	AddMember(ctx context.Context, group model.GroupID, commitment model.Commitment) error
	RemoveMember(ctx context.Context, group model.GroupID, commitment model.Commitment, siblings []model.Word) error
	UpdateGroupAdmin(ctx context.Context, group model.GroupID, newAdmin model.Address) error
	AcceptGroupAdmin(ctx context.Context, group model.GroupID) error

	// ValidateProof returns nil or a *ProofError.
	ValidateProof(ctx context.Context, group model.GroupID, proof model.Proof) error

	HasMember(ctx context.Context, group model.GroupID, commitment model.Commitment) (bool, error)
}

// Checkpointer is implemented by oracles that can undo their own side
// effects. The forum takes a checkpoint before every call and rolls back to
// it when the call fails, so a rejected call leaves no consumed nullifier or
// orphan group behind.
type Checkpointer interface {
	Checkpoint() (rollback func() error)
}

var (
	ErrGroupNotFound     = errors.New("group does not exist")
	ErrMemberExists      = errors.New("member already exists")
	ErrMemberNotFound    = errors.New("member does not exist")
	ErrInvalidCommitment = errors.New("invalid identity commitment")
	ErrNotGroupAdmin     = errors.New("caller is not the group admin")
	ErrNotPendingAdmin   = errors.New("caller is not the pending group admin")
	ErrInvalidDepth      = errors.New("merkle tree depth out of range")
	ErrGroupMismatch     = errors.New("proof group does not match")
	ErrNullifierUsed     = errors.New("nullifier already used")
	ErrInvalidProof      = errors.New("invalid proof")
)

// ProofError reports that a proof was rejected.
type ProofError struct {
	Group  model.GroupID
	Reason error
}

// NewProofError wraps reason for group.
func NewProofError(group model.GroupID, reason error) *ProofError {
	return &ProofError{Group: group, Reason: reason}
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("proof rejected for group %s: %v", e.Group, e.Reason)
}

func (e *ProofError) Unwrap() error {
	return e.Reason
}

// IsProofError reports whether err is or wraps a *ProofError.
func IsProofError(err error) bool {
	var pe *ProofError
	return errors.As(err, &pe)
}
