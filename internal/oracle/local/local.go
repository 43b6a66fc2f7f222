// Package local is a deterministic in-process Membership Oracle.
//
// It tracks groups, members, group admins and used nullifiers. It performs no
// cryptography: proof acceptance is delegated to a Verifier, which accepts
// everything unless replaced.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle"
)

// MaxTreeDepth is the deepest merkle tree a proof may claim.
const MaxTreeDepth = 32

// Verifier decides whether a structurally valid proof is accepted.
type Verifier func(proof model.Proof) error

// AcceptAll is the default Verifier.
func AcceptAll(model.Proof) error { return nil }

type group struct {
	admin      model.Address
	pending    model.Address
	hasPending bool
	members    map[model.Commitment]struct{}
	nullifiers map[string]struct{}
}

// Oracle is a local oracle.Oracle bound to one forum address. Every call is
// treated as coming from that address.
type Oracle struct {
	mu       sync.Mutex
	forum    model.Address
	verifier Verifier
	next     uint64
	groups   map[model.GroupID]*group
}

var _ oracle.Oracle = (*Oracle)(nil)

// Option configures an Oracle.
type Option func(*Oracle)

// WithVerifier replaces the proof verifier.
func WithVerifier(v Verifier) Option {
	return func(o *Oracle) { o.verifier = v }
}

// New creates an empty oracle bound to forum.
func New(forum model.Address, opts ...Option) *Oracle {
	o := &Oracle{
		forum:    forum,
		verifier: AcceptAll,
		next:     1,
		groups:   make(map[model.GroupID]*group),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Forum returns the address the oracle acts for.
func (o *Oracle) Forum() model.Address {
	return o.forum
}

func (o *Oracle) lookup(id model.GroupID) (*group, error) {
	g, ok := o.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, oracle.ErrGroupNotFound)
	}
	return g, nil
}

func (o *Oracle) CreateGroup(ctx context.Context) (model.GroupID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := model.NewGroupID(o.next)
	o.next++
	o.groups[id] = &group{
		admin:      o.forum,
		members:    make(map[model.Commitment]struct{}),
		nullifiers: make(map[string]struct{}),
	}
	return id, nil
}

func (o *Oracle) AddMember(ctx context.Context, id model.GroupID, c model.Commitment) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return err
	}
	if g.admin != o.forum {
		return fmt.Errorf("add member to group %s: %w", id, oracle.ErrNotGroupAdmin)
	}
	if c.IsZero() {
		return fmt.Errorf("add member to group %s: %w", id, oracle.ErrInvalidCommitment)
	}
	if _, ok := g.members[c]; ok {
		return fmt.Errorf("add member %s to group %s: %w", c, id, oracle.ErrMemberExists)
	}
	g.members[c] = struct{}{}
	return nil
}

// RemoveMember ignores siblings; membership is tracked as a set.
func (o *Oracle) RemoveMember(ctx context.Context, id model.GroupID, c model.Commitment, siblings []model.Word) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return err
	}
	if g.admin != o.forum {
		return fmt.Errorf("remove member from group %s: %w", id, oracle.ErrNotGroupAdmin)
	}
	if _, ok := g.members[c]; !ok {
		return fmt.Errorf("remove member %s from group %s: %w", c, id, oracle.ErrMemberNotFound)
	}
	delete(g.members, c)
	return nil
}

func (o *Oracle) UpdateGroupAdmin(ctx context.Context, id model.GroupID, newAdmin model.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return err
	}
	if g.admin != o.forum {
		return fmt.Errorf("update admin of group %s: %w", id, oracle.ErrNotGroupAdmin)
	}
	g.pending = newAdmin
	g.hasPending = true
	return nil
}

func (o *Oracle) AcceptGroupAdmin(ctx context.Context, id model.GroupID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return err
	}
	if !g.hasPending || g.pending != o.forum {
		return fmt.Errorf("accept admin of group %s: %w", id, oracle.ErrNotPendingAdmin)
	}
	g.admin = g.pending
	g.pending = model.Address{}
	g.hasPending = false
	return nil
}

func (o *Oracle) ValidateProof(ctx context.Context, id model.GroupID, proof model.Proof) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.groups[id]
	if !ok {
		return oracle.NewProofError(id, oracle.ErrGroupNotFound)
	}
	if proof.GroupID != id {
		return oracle.NewProofError(id, oracle.ErrGroupMismatch)
	}
	depth := proof.MerkleTreeDepth.Uint256()
	if !depth.IsUint64() || depth.Uint64() < 1 || depth.Uint64() > MaxTreeDepth {
		return oracle.NewProofError(id, oracle.ErrInvalidDepth)
	}
	nullifier := proof.Nullifier.String()
	if _, used := g.nullifiers[nullifier]; used {
		return oracle.NewProofError(id, oracle.ErrNullifierUsed)
	}
	if err := o.verifier(proof); err != nil {
		return oracle.NewProofError(id, fmt.Errorf("%w: %v", oracle.ErrInvalidProof, err))
	}
	g.nullifiers[nullifier] = struct{}{}
	return nil
}

func (o *Oracle) HasMember(ctx context.Context, id model.GroupID, c model.Commitment) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.groups[id]
	if !ok {
		return false, nil
	}
	_, member := g.members[c]
	return member, nil
}

// GroupAdmin returns the current and pending admin of a group.
func (o *Oracle) GroupAdmin(id model.GroupID) (admin, pending model.Address, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return model.Address{}, model.Address{}, err
	}
	return g.admin, g.pending, nil
}

// Members returns a group's commitments in ascending order.
func (o *Oracle) Members(id model.GroupID) ([]model.Commitment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]model.Commitment, 0, len(g.members))
	for c := range g.members {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Uint256().Lt(out[j].Uint256())
	})
	return out, nil
}
