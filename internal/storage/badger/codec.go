package badger

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack"
)

type ledgerRecord struct {
	Oracle       []byte
	Admin        []byte
	GroupCounter uint64
}

type postRecord struct {
	Content   string
	Timestamp uint32
	Upvotes   uint32
	Downvotes uint32
}

type eventRecord struct {
	ID      string
	CallID  string
	Type    string
	Topic   []byte
	Payload []byte
}

func encodeEntity(entity interface{}) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, val), nil
}

func decodeValue(val []byte, entity interface{}) error {
	raw, err := snappy.Decode(nil, val)
	if err != nil {
		return fmt.Errorf("could not uncompress data: %w", err)
	}
	if err := msgpack.Unmarshal(raw, entity); err != nil {
		return fmt.Errorf("could not decode entity: %w", err)
	}
	return nil
}
