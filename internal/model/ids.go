package model

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Address identifies an account: the admin, a voter, the oracle or a group admin.
type Address = common.Address

// PostID identifies a main post within a group. Assigned sequentially from 1.
type PostID uint64

// SubPostID identifies a sub-post under a main post.
type SubPostID uint64

// FixedSubPostID is the only sub-post slot a main post has.
// Creating a second sub-post overwrites the first.
const FixedSubPostID SubPostID = 1

// GroupID is the opaque 256-bit group identifier returned by the membership oracle.
type GroupID uint256.Int

// Commitment is an identity commitment checked against group membership.
type Commitment uint256.Int

// NewGroupID returns the GroupID with the given small value.
func NewGroupID(n uint64) GroupID {
	var z uint256.Int
	z.SetUint64(n)
	return GroupID(z)
}

// ParseGroupID parses a decimal or 0x-prefixed hex group id.
func ParseGroupID(s string) (GroupID, error) {
	z, err := parseUint256(s)
	if err != nil {
		return GroupID{}, fmt.Errorf("parse group id: %w", err)
	}
	return GroupID(z), nil
}

// GroupIDFromBytes32 decodes a 32-byte big-endian key.
func GroupIDFromBytes32(b []byte) GroupID {
	var z uint256.Int
	z.SetBytes(b)
	return GroupID(z)
}

// Uint256 returns the id as a uint256 value.
func (g GroupID) Uint256() *uint256.Int {
	z := uint256.Int(g)
	return &z
}

// Bytes32 returns the 32-byte big-endian key form.
func (g GroupID) Bytes32() [32]byte {
	return g.Uint256().Bytes32()
}

// IsZero reports whether the id is zero.
func (g GroupID) IsZero() bool {
	return g.Uint256().IsZero()
}

// String returns the decimal form.
func (g GroupID) String() string {
	return g.Uint256().ToBig().String()
}

// MarshalText implements encoding.TextMarshaler using the decimal form.
func (g GroupID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GroupID) UnmarshalText(text []byte) error {
	parsed, err := ParseGroupID(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// NewCommitment returns the Commitment with the given small value.
func NewCommitment(n uint64) Commitment {
	var z uint256.Int
	z.SetUint64(n)
	return Commitment(z)
}

// ParseCommitment parses a decimal or 0x-prefixed hex commitment.
func ParseCommitment(s string) (Commitment, error) {
	z, err := parseUint256(s)
	if err != nil {
		return Commitment{}, fmt.Errorf("parse commitment: %w", err)
	}
	return Commitment(z), nil
}

// Uint256 returns the commitment as a uint256 value.
func (c Commitment) Uint256() *uint256.Int {
	z := uint256.Int(c)
	return &z
}

// IsZero reports whether the commitment is zero.
func (c Commitment) IsZero() bool {
	return c.Uint256().IsZero()
}

// String returns the decimal form.
func (c Commitment) String() string {
	return c.Uint256().ToBig().String()
}

// MarshalText implements encoding.TextMarshaler using the decimal form.
func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Commitment) UnmarshalText(text []byte) error {
	parsed, err := ParseCommitment(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParsePostID parses a decimal post id.
func ParsePostID(s string) (PostID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse post id: %w", err)
	}
	return PostID(n), nil
}

// ParseSubPostID parses a decimal sub-post id.
func ParseSubPostID(s string) (SubPostID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sub-post id: %w", err)
	}
	return SubPostID(n), nil
}

// ParseAddress parses a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseUint256 accepts decimal or 0x-prefixed hex and rejects values wider than 256 bits.
func parseUint256(s string) (uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return uint256.Int{}, fmt.Errorf("invalid integer %q", s)
	}
	if b.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("negative value %q", s)
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return uint256.Int{}, fmt.Errorf("value %q exceeds 256 bits", s)
	}
	return *z, nil
}
