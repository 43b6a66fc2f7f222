package testutil

import (
	"fmt"
	"sync"
)

// SequentialCallIDs generates "<prefix>-1", "<prefix>-2", ...
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario produces byte-identical event logs.
//
// Implements engine.CallIDGenerator.
type SequentialCallIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialCallIDs creates a generator. An empty prefix means "call".
func NewSequentialCallIDs(prefix string) *SequentialCallIDs {
	if prefix == "" {
		prefix = "call"
	}
	return &SequentialCallIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialCallIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
