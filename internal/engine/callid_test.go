package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Len(t, a, 36)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all ids exhausted", func() { g.Generate() })
}

func TestForum_UsesCallIDGenerator(t *testing.T) {
	fx := newFixture(t, WithCallIDs(NewFixedGenerator("init-call", "post-call")))
	require.NoError(t, fx.forum.Init(fx.ctx, adminAddr, oracleAddr))
	fx.post(bootstrap, "hello")

	evs := fx.events()
	require.Len(t, evs, 1)
	assert.Equal(t, "post-call", evs[0].CallID)
}
