package badger

import (
	"encoding/binary"

	"github.com/roach88/ombu/internal/model"
)

const (
	codeLedger      byte = 1
	codeGroupName   byte = 10
	codeGroupList   byte = 11
	codePostCounter byte = 12
	codePost        byte = 20
	codeVoteFlag    byte = 21
	codeEvent       byte = 30
)

func makePrefix(code byte, parts ...[]byte) []byte {
	key := []byte{code}
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func b8(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func b32(g model.GroupID) []byte {
	b := g.Bytes32()
	return b[:]
}

func ledgerKey() []byte {
	return makePrefix(codeLedger)
}

func groupNameKey(g model.GroupID) []byte {
	return makePrefix(codeGroupName, b32(g))
}

func groupListKey(idx uint64) []byte {
	return makePrefix(codeGroupList, b8(idx))
}

func postCounterKey(g model.GroupID) []byte {
	return makePrefix(codePostCounter, b32(g))
}

func postKey(k model.PostKey) []byte {
	return makePrefix(codePost, b32(k.Group), b8(uint64(k.Post)), b8(uint64(k.SubPost)))
}

func voteFlagKey(voter model.Address, k model.PostKey) []byte {
	return makePrefix(codeVoteFlag, voter.Bytes(), b32(k.Group), b8(uint64(k.Post)), b8(uint64(k.SubPost)))
}

func eventKey(seq uint64) []byte {
	return makePrefix(codeEvent, b8(seq))
}

// suffixUint64 decodes the trailing 8-byte component of a key.
func suffixUint64(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
