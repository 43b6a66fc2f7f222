package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// ChangeAdmin hands the forum admin role to newAdmin. Admin only.
func (f *Forum) ChangeAdmin(ctx context.Context, sender, newAdmin model.Address) error {
	return f.run(ctx, OpChangeAdmin, func(c *call) error {
		c.set("new_admin", newAdmin.Hex())
		if _, err := c.requireAdmin(sender); err != nil {
			return err
		}
		err := c.update(func(w storage.Writer) error {
			l, err := readLedger(w)
			if err != nil {
				return err
			}
			l.Admin = newAdmin
			if err := w.SetLedger(l); err != nil {
				return err
			}
			return c.emit(w, model.ChangeAdmin{NewAdmin: newAdmin})
		})
		if err != nil {
			return fmt.Errorf("change admin: %w", err)
		}
		return nil
	})
}

// AddMember adds commitment to group. Authorisation is left to the oracle.
func (f *Forum) AddMember(ctx context.Context, group model.GroupID, commitment model.Commitment) error {
	return f.run(ctx, OpAddMember, func(c *call) error {
		c.set("group", group.String())
		if _, err := c.ledger(); err != nil {
			return err
		}
		if err := f.oracle.AddMember(ctx, group, commitment); err != nil {
			return oracleError("add member", err)
		}
		return nil
	})
}

// RemoveMember removes commitment from group. Admin only.
func (f *Forum) RemoveMember(ctx context.Context, sender model.Address, group model.GroupID, commitment model.Commitment, siblings []model.Word) error {
	return f.run(ctx, OpRemoveMember, func(c *call) error {
		c.set("group", group.String())
		if _, err := c.requireAdmin(sender); err != nil {
			return err
		}
		if err := f.oracle.RemoveMember(ctx, group, commitment, siblings); err != nil {
			return oracleError("remove member", err)
		}
		return nil
	})
}

// ChangeGroupAdmin nominates newAdmin as the group's admin in the oracle.
func (f *Forum) ChangeGroupAdmin(ctx context.Context, group model.GroupID, newAdmin model.Address) error {
	return f.run(ctx, OpChangeGroupAdmin, func(c *call) error {
		c.set("group", group.String())
		c.set("new_admin", newAdmin.Hex())
		if _, err := c.ledger(); err != nil {
			return err
		}
		if err := f.oracle.UpdateGroupAdmin(ctx, group, newAdmin); err != nil {
			return oracleError("update group admin", err)
		}
		return nil
	})
}

// AcceptGroupAdmin accepts a pending group admin nomination in the oracle.
func (f *Forum) AcceptGroupAdmin(ctx context.Context, group model.GroupID) error {
	return f.run(ctx, OpAcceptGroupAdmin, func(c *call) error {
		c.set("group", group.String())
		if _, err := c.ledger(); err != nil {
			return err
		}
		if err := f.oracle.AcceptGroupAdmin(ctx, group); err != nil {
			return oracleError("accept group admin", err)
		}
		return nil
	})
}

// IsGroupMember asks the oracle whether commitment belongs to group.
func (f *Forum) IsGroupMember(ctx context.Context, group model.GroupID, commitment model.Commitment) (bool, error) {
	var member bool
	err := f.run(ctx, OpIsGroupMember, func(c *call) error {
		c.set("group", group.String())
		if _, err := c.ledger(); err != nil {
			return err
		}
		var err error
		member, err = f.oracle.HasMember(ctx, group, commitment)
		if err != nil {
			return oracleError("has member", err)
		}
		c.set("member", member)
		return nil
	})
	return member, err
}
