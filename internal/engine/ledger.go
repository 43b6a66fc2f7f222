package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// Init records sender as admin and oracleAddr as the oracle address, and
// creates the bootstrap group. It may be called once.
func (f *Forum) Init(ctx context.Context, sender, oracleAddr model.Address) error {
	return f.run(ctx, OpInit, func(c *call) error {
		c.set("admin", sender.Hex())

		err := f.store.View(ctx, func(r storage.Reader) error {
			_, err := r.Ledger()
			return err
		})
		switch {
		case err == nil:
			return newError(CodeAlreadyInitialized, "forum is already initialized", nil)
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("init: %w", err)
		}

		group, err := f.oracle.CreateGroup(ctx)
		if err != nil {
			return oracleError("create bootstrap group", err)
		}
		c.set("group", group.String())

		err = c.update(func(w storage.Writer) error {
			if err := w.SetLedger(model.Ledger{
				Oracle:       oracleAddr,
				Admin:        sender,
				GroupCounter: 1,
			}); err != nil {
				return err
			}
			if err := w.AppendGroup(group); err != nil {
				return err
			}
			return w.SetGroupName(group, BootstrapGroupName)
		})
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		f.metrics.GroupCreated()
		return nil
	})
}

// CreateGroup creates a named group through the oracle. Admin only.
func (f *Forum) CreateGroup(ctx context.Context, sender model.Address, name string) (model.GroupID, error) {
	var group model.GroupID
	err := f.run(ctx, OpCreateGroup, func(c *call) error {
		c.set("name", name)
		if _, err := c.requireAdmin(sender); err != nil {
			return err
		}

		var err error
		group, err = f.oracle.CreateGroup(ctx)
		if err != nil {
			return oracleError("create group", err)
		}
		c.set("group", group.String())

		err = c.update(func(w storage.Writer) error {
			l, err := readLedger(w)
			if err != nil {
				return err
			}
			if err := w.SetGroupName(group, name); err != nil {
				return err
			}
			l.GroupCounter++
			if err := w.SetLedger(l); err != nil {
				return err
			}
			return w.AppendGroup(group)
		})
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		f.metrics.GroupCreated()
		return nil
	})
	if err != nil {
		return model.GroupID{}, err
	}
	return group, nil
}

// allocatePostID increments and persists the group's post counter.
func allocatePostID(w storage.Writer, group model.GroupID) (model.PostID, error) {
	counter, err := w.PostCounter(group)
	if err != nil {
		return 0, err
	}
	counter++
	if err := w.SetPostCounter(group, counter); err != nil {
		return 0, err
	}
	return model.PostID(counter), nil
}
