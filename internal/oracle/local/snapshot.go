package local

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle"
)

var _ oracle.Checkpointer = (*Oracle)(nil)

// Snapshot is the persisted form of an Oracle.
type Snapshot struct {
	Forum     string          `yaml:"forum"`
	NextGroup uint64          `yaml:"next_group"`
	Groups    []GroupSnapshot `yaml:"groups"`
}

// GroupSnapshot is the persisted form of one group.
type GroupSnapshot struct {
	ID         string   `yaml:"id"`
	Admin      string   `yaml:"admin"`
	Pending    string   `yaml:"pending,omitempty"`
	Members    []string `yaml:"members,omitempty"`
	Nullifiers []string `yaml:"nullifiers,omitempty"`
}

// Snapshot captures the oracle state. Groups are ordered by id and members
// by value so equal states serialize identically.
func (o *Oracle) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]model.GroupID, 0, len(o.groups))
	for id := range o.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Uint256().Lt(ids[j].Uint256())
	})

	snap := Snapshot{
		Forum:     o.forum.Hex(),
		NextGroup: o.next,
		Groups:    make([]GroupSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		g := o.groups[id]
		gs := GroupSnapshot{ID: id.String(), Admin: g.admin.Hex()}
		if g.hasPending {
			gs.Pending = g.pending.Hex()
		}
		members := make([]model.Commitment, 0, len(g.members))
		for c := range g.members {
			members = append(members, c)
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].Uint256().Lt(members[j].Uint256())
		})
		for _, c := range members {
			gs.Members = append(gs.Members, c.String())
		}
		for n := range g.nullifiers {
			gs.Nullifiers = append(gs.Nullifiers, n)
		}
		sort.Strings(gs.Nullifiers)
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

// Restore replaces the oracle state with snap. The forum address must match.
func (o *Oracle) Restore(snap Snapshot) error {
	forum, err := model.ParseAddress(snap.Forum)
	if err != nil {
		return fmt.Errorf("restore oracle: %w", err)
	}
	if forum != o.forum {
		return fmt.Errorf("restore oracle: snapshot belongs to %s, not %s", forum.Hex(), o.forum.Hex())
	}

	groups := make(map[model.GroupID]*group, len(snap.Groups))
	for _, gs := range snap.Groups {
		id, err := model.ParseGroupID(gs.ID)
		if err != nil {
			return fmt.Errorf("restore oracle: %w", err)
		}
		admin, err := model.ParseAddress(gs.Admin)
		if err != nil {
			return fmt.Errorf("restore oracle: group %s admin: %w", gs.ID, err)
		}
		g := &group{
			admin:      admin,
			members:    make(map[model.Commitment]struct{}, len(gs.Members)),
			nullifiers: make(map[string]struct{}, len(gs.Nullifiers)),
		}
		if gs.Pending != "" {
			if g.pending, err = model.ParseAddress(gs.Pending); err != nil {
				return fmt.Errorf("restore oracle: group %s pending admin: %w", gs.ID, err)
			}
			g.hasPending = true
		}
		for _, m := range gs.Members {
			c, err := model.ParseCommitment(m)
			if err != nil {
				return fmt.Errorf("restore oracle: group %s: %w", gs.ID, err)
			}
			g.members[c] = struct{}{}
		}
		for _, n := range gs.Nullifiers {
			g.nullifiers[n] = struct{}{}
		}
		groups[id] = g
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.groups = groups
	o.next = snap.NextGroup
	if o.next == 0 {
		o.next = 1
	}
	return nil
}

// Checkpoint captures the current state. The returned func restores it.
func (o *Oracle) Checkpoint() func() error {
	snap := o.Snapshot()
	return func() error {
		return o.Restore(snap)
	}
}

// Save writes the snapshot to path as YAML.
func (o *Oracle) Save(path string) error {
	data, err := yaml.Marshal(o.Snapshot())
	if err != nil {
		return fmt.Errorf("save oracle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save oracle: %w", err)
	}
	return nil
}

// Load restores the oracle from a YAML snapshot at path. A missing file
// leaves the oracle empty.
func (o *Oracle) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load oracle: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("load oracle: %w", err)
	}
	return o.Restore(snap)
}
