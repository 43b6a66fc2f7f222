package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// validateProof forwards proof, bound to group, to the oracle.
func (c *call) validateProof(group model.GroupID, proof model.Proof) error {
	if err := c.f.oracle.ValidateProof(c.ctx, group, proof.ForGroup(group)); err != nil {
		return oracleError("validate proof", err)
	}
	return nil
}

// CreateMainPost stores content as the next post of group once the oracle
// accepts proof.
func (f *Forum) CreateMainPost(ctx context.Context, group model.GroupID, proof model.Proof, content string) (model.PostID, error) {
	var id model.PostID
	err := f.run(ctx, OpCreateMainPost, func(c *call) error {
		c.set("group", group.String())
		if _, err := c.ledger(); err != nil {
			return err
		}
		if err := c.validateProof(group, proof); err != nil {
			return err
		}
		ts, err := c.now()
		if err != nil {
			return err
		}

		err = c.update(func(w storage.Writer) error {
			var err error
			id, err = allocatePostID(w, group)
			if err != nil {
				return err
			}
			post := model.Post{Content: content, Timestamp: ts}
			if err := w.PutPost(model.MainPostKey(group, id), post); err != nil {
				return err
			}
			return c.emit(w, model.PostCreated{GroupID: group, PostID: id, Timestamp: ts})
		})
		if err != nil {
			return fmt.Errorf("create main post: %w", err)
		}
		c.set("post", uint64(id))
		f.metrics.PostCreated(metrics.KindPost)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateSubPost writes content into the sub-post slot of mainPost, replacing
// any earlier sub-post. The new record starts with zero counts; vote flags
// already set on the slot survive.
func (f *Forum) CreateSubPost(ctx context.Context, group model.GroupID, mainPost model.PostID, proof model.Proof, content string) (model.SubPostID, error) {
	err := f.run(ctx, OpCreateSubPost, func(c *call) error {
		c.set("group", group.String())
		c.set("post", uint64(mainPost))
		if _, err := c.ledger(); err != nil {
			return err
		}
		if err := c.validateProof(group, proof); err != nil {
			return err
		}
		ts, err := c.now()
		if err != nil {
			return err
		}

		err = c.update(func(w storage.Writer) error {
			main, err := w.Post(model.MainPostKey(group, mainPost))
			if err != nil {
				return err
			}
			if !main.Exists() {
				return newError(CodeMainPostDoesNotExist, "main post does not exist", map[string]string{
					"group": group.String(),
					"post":  fmt.Sprint(mainPost),
				})
			}
			key := model.SubPostKey(group, mainPost, model.FixedSubPostID)
			if err := w.PutPost(key, model.Post{Content: content, Timestamp: ts}); err != nil {
				return err
			}
			return c.emit(w, model.SubPostCreated{
				GroupID:   group,
				PostID:    mainPost,
				SubPostID: model.FixedSubPostID,
				Timestamp: ts,
			})
		})
		if err != nil {
			return fmt.Errorf("create sub post: %w", err)
		}
		c.set("sub_post", uint64(model.FixedSubPostID))
		f.metrics.PostCreated(metrics.KindSubPost)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return model.FixedSubPostID, nil
}
