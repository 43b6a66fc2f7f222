package storage

import (
	"context"

	"github.com/roach88/ombu/internal/model"
)

// Reader exposes read access inside a transaction.
type Reader interface {
	// Ledger returns the singleton ledger, or ErrNotFound before initialization.
	Ledger() (model.Ledger, error)

	// GroupName returns the group's name, "" if none was set.
	GroupName(group model.GroupID) (string, error)

	// Groups returns group ids in the order they were appended.
	Groups() ([]model.GroupID, error)

	// PostCounter returns the last assigned post id of a group, 0 if none.
	PostCounter(group model.GroupID) (uint64, error)

	// Post returns the post at key, the zero Post if absent.
	Post(key model.PostKey) (model.Post, error)

	// VoteFlag reports whether voter has an outstanding vote on key.
	VoteFlag(voter model.Address, key model.PostKey) (bool, error)

	// LastEventSeq returns the highest persisted event seq, 0 if none.
	LastEventSeq() (uint64, error)

	// Events returns up to limit events with seq > afterSeq in seq order.
	// A limit <= 0 returns all remaining events.
	Events(afterSeq uint64, limit int) ([]model.Event, error)
}

// Writer exposes read and write access inside a transaction.
type Writer interface {
	Reader

	SetLedger(ledger model.Ledger) error
	SetGroupName(group model.GroupID, name string) error
	AppendGroup(group model.GroupID) error
	SetPostCounter(group model.GroupID, counter uint64) error
	PutPost(key model.PostKey, post model.Post) error
	SetVoteFlag(voter model.Address, key model.PostKey, voted bool) error

	// AppendEvent persists ev. ev.Seq must equal LastEventSeq()+1.
	AppendEvent(ev model.Event) error
}

// Storage runs closures in transactions.
//
// Update commits only when fn returns nil; any error rolls back every write
// performed by fn. View never writes.
type Storage interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error
	Close() error
}
