package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// txn implements storage.Writer over one *sql.Tx.
type txn struct {
	ctx context.Context
	tx  *sql.Tx
}

var _ storage.Writer = (*txn)(nil)

func groupKey(g model.GroupID) []byte {
	b := g.Bytes32()
	return b[:]
}

func (t *txn) Ledger() (model.Ledger, error) {
	var (
		oracle, admin []byte
		counter       int64
	)
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT oracle, admin, group_counter FROM ledger WHERE id = 1`,
	).Scan(&oracle, &admin, &counter)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ledger{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	return model.Ledger{
		Oracle:       common.BytesToAddress(oracle),
		Admin:        common.BytesToAddress(admin),
		GroupCounter: uint64(counter),
	}, nil
}

func (t *txn) SetLedger(l model.Ledger) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO ledger (id, oracle, admin, group_counter)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			oracle = excluded.oracle,
			admin = excluded.admin,
			group_counter = excluded.group_counter
	`, l.Oracle.Bytes(), l.Admin.Bytes(), int64(l.GroupCounter))
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

func (t *txn) GroupName(g model.GroupID) (string, error) {
	var name string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT name FROM group_names WHERE group_id = ?`, groupKey(g),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read group name: %w", err)
	}
	return name, nil
}

func (t *txn) SetGroupName(g model.GroupID, name string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO group_names (group_id, name) VALUES (?, ?)
		ON CONFLICT(group_id) DO UPDATE SET name = excluded.name
	`, groupKey(g), name)
	if err != nil {
		return fmt.Errorf("write group name: %w", err)
	}
	return nil
}

func (t *txn) Groups() ([]model.GroupID, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT group_id FROM group_list ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []model.GroupID{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, model.GroupIDFromBytes32(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

func (t *txn) AppendGroup(g model.GroupID) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO group_list (group_id) VALUES (?)`, groupKey(g),
	); err != nil {
		return fmt.Errorf("append group: %w", err)
	}
	return nil
}

func (t *txn) PostCounter(g model.GroupID) (uint64, error) {
	var counter int64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT counter FROM group_post_counters WHERE group_id = ?`, groupKey(g),
	).Scan(&counter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read post counter: %w", err)
	}
	return uint64(counter), nil
}

func (t *txn) SetPostCounter(g model.GroupID, counter uint64) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO group_post_counters (group_id, counter) VALUES (?, ?)
		ON CONFLICT(group_id) DO UPDATE SET counter = excluded.counter
	`, groupKey(g), int64(counter))
	if err != nil {
		return fmt.Errorf("write post counter: %w", err)
	}
	return nil
}

func (t *txn) Post(k model.PostKey) (model.Post, error) {
	var (
		p                             model.Post
		timestamp, upvotes, downvotes int64
	)
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT content, timestamp, upvotes, downvotes FROM posts
		WHERE group_id = ? AND post_id = ? AND sub_post_id = ?
	`, groupKey(k.Group), int64(k.Post), int64(k.SubPost)).Scan(&p.Content, &timestamp, &upvotes, &downvotes)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, nil
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("read post: %w", err)
	}
	p.Timestamp = uint32(timestamp)
	p.Upvotes = uint32(upvotes)
	p.Downvotes = uint32(downvotes)
	return p, nil
}

func (t *txn) PutPost(k model.PostKey, p model.Post) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO posts (group_id, post_id, sub_post_id, content, timestamp, upvotes, downvotes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id, post_id, sub_post_id) DO UPDATE SET
			content = excluded.content,
			timestamp = excluded.timestamp,
			upvotes = excluded.upvotes,
			downvotes = excluded.downvotes
	`,
		groupKey(k.Group), int64(k.Post), int64(k.SubPost),
		p.Content, int64(p.Timestamp), int64(p.Upvotes), int64(p.Downvotes),
	)
	if err != nil {
		return fmt.Errorf("write post: %w", err)
	}
	return nil
}

func (t *txn) VoteFlag(voter model.Address, k model.PostKey) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT COUNT(*) FROM vote_flags
		WHERE voter = ? AND group_id = ? AND post_id = ? AND sub_post_id = ?
	`, voter.Bytes(), groupKey(k.Group), int64(k.Post), int64(k.SubPost)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read vote flag: %w", err)
	}
	return n > 0, nil
}

func (t *txn) SetVoteFlag(voter model.Address, k model.PostKey, voted bool) error {
	var err error
	if voted {
		_, err = t.tx.ExecContext(t.ctx, `
			INSERT INTO vote_flags (voter, group_id, post_id, sub_post_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, voter.Bytes(), groupKey(k.Group), int64(k.Post), int64(k.SubPost))
	} else {
		_, err = t.tx.ExecContext(t.ctx, `
			DELETE FROM vote_flags
			WHERE voter = ? AND group_id = ? AND post_id = ? AND sub_post_id = ?
		`, voter.Bytes(), groupKey(k.Group), int64(k.Post), int64(k.SubPost))
	}
	if err != nil {
		return fmt.Errorf("write vote flag: %w", err)
	}
	return nil
}

func (t *txn) LastEventSeq() (uint64, error) {
	var seq int64
	if err := t.tx.QueryRowContext(t.ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events`,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last event seq: %w", err)
	}
	return uint64(seq), nil
}

func (t *txn) Events(afterSeq uint64, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT seq, id, call_id, type, topic, payload FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			ev      model.Event
			seq     int64
			typ     string
			topic   []byte
			payload string
		)
		if err := rows.Scan(&seq, &ev.ID, &ev.CallID, &typ, &topic, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Seq = uint64(seq)
		ev.Type = model.EventType(typ)
		ev.Topic = common.BytesToHash(topic)
		ev.Payload = []byte(payload)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (t *txn) AppendEvent(ev model.Event) error {
	last, err := t.LastEventSeq()
	if err != nil {
		return err
	}
	if ev.Seq != last+1 {
		return fmt.Errorf("append event: seq %d does not follow %d", ev.Seq, last)
	}
	if _, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO events (seq, id, call_id, type, topic, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, int64(ev.Seq), ev.ID, ev.CallID, string(ev.Type), ev.Topic.Bytes(), string(ev.Payload)); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
