package badger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
)

// Store is a storage.Storage on badger.
type Store struct {
	db *badger.DB
}

var _ storage.Storage = (*Store)(nil)

// Open opens or creates a badger database in dir.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a badger database that lives only in memory.
func OpenInMemory(log zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log zerolog.Logger) (*Store, error) {
	opts = opts.WithLogger(newLogger(log))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// View runs fn in a read-only badger transaction.
func (s *Store) View(ctx context.Context, fn func(storage.Reader) error) error {
	if s.db == nil {
		return storage.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *badger.Txn) error {
		return fn(&txn{tx: tx})
	})
}

// Update runs fn in a read-write badger transaction. Badger discards the
// transaction when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(storage.Writer) error) error {
	if s.db == nil {
		return storage.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *badger.Txn) error {
		return fn(&txn{tx: tx})
	})
}

type txn struct {
	tx *badger.Txn
}

var _ storage.Writer = (*txn)(nil)

// retrieve decodes the value under key into entity and reports whether it existed.
func (t *txn) retrieve(key []byte, entity interface{}) (bool, error) {
	item, err := t.tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not load data: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return decodeValue(val, entity)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *txn) upsert(key []byte, entity interface{}) error {
	val, err := encodeEntity(entity)
	if err != nil {
		return err
	}
	if err := t.tx.Set(key, val); err != nil {
		return fmt.Errorf("could not store data: %w", err)
	}
	return nil
}

// lastKey returns the highest key with the given prefix.
func (t *txn) lastKey(prefix []byte) ([]byte, bool) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := t.tx.NewIterator(opts)
	defer it.Close()

	seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	it.Seek(seek)
	if !it.ValidForPrefix(prefix) {
		return nil, false
	}
	return it.Item().KeyCopy(nil), true
}

func (t *txn) Ledger() (model.Ledger, error) {
	var rec ledgerRecord
	ok, err := t.retrieve(ledgerKey(), &rec)
	if err != nil {
		return model.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	if !ok {
		return model.Ledger{}, storage.ErrNotFound
	}
	return model.Ledger{
		Oracle:       common.BytesToAddress(rec.Oracle),
		Admin:        common.BytesToAddress(rec.Admin),
		GroupCounter: rec.GroupCounter,
	}, nil
}

func (t *txn) SetLedger(l model.Ledger) error {
	return t.upsert(ledgerKey(), ledgerRecord{
		Oracle:       l.Oracle.Bytes(),
		Admin:        l.Admin.Bytes(),
		GroupCounter: l.GroupCounter,
	})
}

func (t *txn) GroupName(g model.GroupID) (string, error) {
	var name string
	if _, err := t.retrieve(groupNameKey(g), &name); err != nil {
		return "", fmt.Errorf("read group name: %w", err)
	}
	return name, nil
}

func (t *txn) SetGroupName(g model.GroupID, name string) error {
	return t.upsert(groupNameKey(g), name)
}

func (t *txn) Groups() ([]model.GroupID, error) {
	prefix := makePrefix(codeGroupList)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := t.tx.NewIterator(opts)
	defer it.Close()

	groups := []model.GroupID{}
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var raw []byte
		err := it.Item().Value(func(val []byte) error {
			return decodeValue(val, &raw)
		})
		if err != nil {
			return nil, fmt.Errorf("read group list: %w", err)
		}
		groups = append(groups, model.GroupIDFromBytes32(raw))
	}
	return groups, nil
}

func (t *txn) AppendGroup(g model.GroupID) error {
	next := uint64(1)
	if key, ok := t.lastKey(makePrefix(codeGroupList)); ok {
		next = suffixUint64(key) + 1
	}
	return t.upsert(groupListKey(next), b32(g))
}

func (t *txn) PostCounter(g model.GroupID) (uint64, error) {
	var counter uint64
	if _, err := t.retrieve(postCounterKey(g), &counter); err != nil {
		return 0, fmt.Errorf("read post counter: %w", err)
	}
	return counter, nil
}

func (t *txn) SetPostCounter(g model.GroupID, counter uint64) error {
	return t.upsert(postCounterKey(g), counter)
}

func (t *txn) Post(k model.PostKey) (model.Post, error) {
	var rec postRecord
	if _, err := t.retrieve(postKey(k), &rec); err != nil {
		return model.Post{}, fmt.Errorf("read post: %w", err)
	}
	return model.Post{
		Content:   rec.Content,
		Timestamp: rec.Timestamp,
		Upvotes:   rec.Upvotes,
		Downvotes: rec.Downvotes,
	}, nil
}

func (t *txn) PutPost(k model.PostKey, p model.Post) error {
	return t.upsert(postKey(k), postRecord{
		Content:   p.Content,
		Timestamp: p.Timestamp,
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
	})
}

func (t *txn) VoteFlag(voter model.Address, k model.PostKey) (bool, error) {
	_, err := t.tx.Get(voteFlagKey(voter, k))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read vote flag: %w", err)
	}
	return true, nil
}

func (t *txn) SetVoteFlag(voter model.Address, k model.PostKey, voted bool) error {
	key := voteFlagKey(voter, k)
	var err error
	if voted {
		err = t.tx.Set(key, []byte{1})
	} else {
		err = t.tx.Delete(key)
	}
	if err != nil {
		return fmt.Errorf("write vote flag: %w", err)
	}
	return nil
}

func (t *txn) LastEventSeq() (uint64, error) {
	key, ok := t.lastKey(makePrefix(codeEvent))
	if !ok {
		return 0, nil
	}
	return suffixUint64(key), nil
}

func (t *txn) Events(afterSeq uint64, limit int) ([]model.Event, error) {
	events := []model.Event{}
	if afterSeq == math.MaxUint64 {
		return events, nil
	}

	prefix := makePrefix(codeEvent)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := t.tx.NewIterator(opts)
	defer it.Close()

	for it.Seek(eventKey(afterSeq + 1)); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(events) >= limit {
			break
		}
		item := it.Item()
		var rec eventRecord
		if err := item.Value(func(val []byte) error {
			return decodeValue(val, &rec)
		}); err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		events = append(events, model.Event{
			Seq:     suffixUint64(item.Key()),
			ID:      rec.ID,
			CallID:  rec.CallID,
			Type:    model.EventType(rec.Type),
			Topic:   common.BytesToHash(rec.Topic),
			Payload: rec.Payload,
		})
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
	return t.upsert(eventKey(ev.Seq), eventRecord{
		ID:      ev.ID,
		CallID:  ev.CallID,
		Type:    string(ev.Type),
		Topic:   ev.Topic.Bytes(),
		Payload: ev.Payload,
	})
}
