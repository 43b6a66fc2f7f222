package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Word is a 256-bit proof field, decoded from decimal or 0x-prefixed hex text.
type Word uint256.Int

// NewWord returns the Word with the given small value.
func NewWord(n uint64) Word {
	var z uint256.Int
	z.SetUint64(n)
	return Word(z)
}

// ParseWord parses a decimal or 0x-prefixed hex word.
func ParseWord(s string) (Word, error) {
	z, err := parseUint256(s)
	if err != nil {
		return Word{}, fmt.Errorf("parse word: %w", err)
	}
	return Word(z), nil
}

// Uint256 returns the word as a uint256 value.
func (w Word) Uint256() *uint256.Int {
	z := uint256.Int(w)
	return &z
}

// String returns the decimal form.
func (w Word) String() string {
	return w.Uint256().ToBig().String()
}

// MarshalText implements encoding.TextMarshaler using the decimal form.
func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Word) UnmarshalText(text []byte) error {
	parsed, err := ParseWord(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Proof carries the fields of a group-membership proof.
// The forum never inspects them; they are forwarded to the membership oracle.
type Proof struct {
	MerkleTreeDepth Word    `json:"merkle_tree_depth" yaml:"merkle_tree_depth"`
	MerkleTreeRoot  Word    `json:"merkle_tree_root" yaml:"merkle_tree_root"`
	Nullifier       Word    `json:"nullifier" yaml:"nullifier"`
	Feedback        Word    `json:"feedback" yaml:"feedback"`
	GroupID         GroupID `json:"group_id" yaml:"group_id"`
	Points          [8]Word `json:"points" yaml:"points"`
}

// ForGroup returns a copy of the proof bound to the given group.
func (p Proof) ForGroup(group GroupID) Proof {
	p.GroupID = group
	return p
}
