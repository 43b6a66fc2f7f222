package engine

import (
	"sync"

	"github.com/google/uuid"
)

// CallIDGenerator produces the correlation id attached to each public call
// and to every event the call emits.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type CallIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 call ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined call ids in order.
//
// Panics once all ids have been consumed, which catches tests that make
// more calls than they declared.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
