package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle/local"
	"github.com/roach88/ombu/internal/storage"
	"github.com/roach88/ombu/internal/storage/sqlite"
	"github.com/roach88/ombu/internal/testutil"
)

var (
	forumAddr  = common.HexToAddress("0x000000000000000000000000000000000000f0f0")
	oracleAddr = common.HexToAddress("0x0000000000000000000000000000000000005e3a")
	adminAddr  = common.HexToAddress("0x00000000000000000000000000000000000ad001")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000ca201")

	bootstrap = model.NewGroupID(1)
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  storage.Storage
	oracle *local.Oracle
	clock  *testutil.StepClock
	forum  *Forum

	nullifier uint64
}

// newFixture builds an uninitialized forum over a temp sqlite store and a
// local oracle.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "forum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return newFixtureWithStore(t, s, opts...)
}

func newFixtureWithStore(t *testing.T, s storage.Storage, opts ...Option) *fixture {
	t.Helper()
	fx := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  s,
		oracle: local.New(forumAddr),
		clock:  testutil.NewStepClock(0, 1),
	}
	base := []Option{
		WithClock(fx.clock),
		WithCallIDs(testutil.NewSequentialCallIDs("call")),
	}
	fx.forum = New(s, fx.oracle, append(base, opts...)...)
	return fx
}

// initialized returns a fixture after a successful Init by adminAddr.
func initialized(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fx := newFixture(t, opts...)
	require.NoError(t, fx.forum.Init(fx.ctx, adminAddr, oracleAddr))
	return fx
}

// member registers commitment n in group.
func (fx *fixture) member(group model.GroupID, n uint64) model.Commitment {
	fx.t.Helper()
	c := model.NewCommitment(n)
	require.NoError(fx.t, fx.forum.AddMember(fx.ctx, group, c))
	return c
}

// proof returns a structurally valid proof with a fresh nullifier.
func (fx *fixture) proof() model.Proof {
	fx.nullifier++
	return model.Proof{
		MerkleTreeDepth: model.NewWord(20),
		MerkleTreeRoot:  model.NewWord(12345),
		Nullifier:       model.NewWord(fx.nullifier),
	}
}

func (fx *fixture) post(group model.GroupID, content string) model.PostID {
	fx.t.Helper()
	id, err := fx.forum.CreateMainPost(fx.ctx, group, fx.proof(), content)
	require.NoError(fx.t, err)
	return id
}

func (fx *fixture) getPost(group model.GroupID, id model.PostID) model.Post {
	fx.t.Helper()
	p, err := fx.forum.Post(fx.ctx, group, id)
	require.NoError(fx.t, err)
	return p
}

func (fx *fixture) getSubPost(group model.GroupID, id model.PostID) model.Post {
	fx.t.Helper()
	p, err := fx.forum.SubPost(fx.ctx, group, id, model.FixedSubPostID)
	require.NoError(fx.t, err)
	return p
}

func (fx *fixture) events() []model.Event {
	fx.t.Helper()
	evs, err := fx.forum.Events(fx.ctx, 0, 0)
	require.NoError(fx.t, err)
	return evs
}

func eventTypes(evs []model.Event) []model.EventType {
	out := make([]model.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

// failingStore fails AppendEvent inside every Update.
// failingStore fails every event append, and every group append while
// failGroups is set.
type failingStore struct {
	storage.Storage
	failGroups bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Update(ctx context.Context, fn func(storage.Writer) error) error {
	return s.Storage.Update(ctx, func(w storage.Writer) error {
		return fn(&failingWriter{Writer: w, store: s})
	})
}

type failingWriter struct {
	storage.Writer
	store *failingStore
}

func (w *failingWriter) AppendEvent(model.Event) error {
	return errDiskFull
}

func (w *failingWriter) AppendGroup(g model.GroupID) error {
	if w.store.failGroups {
		return errDiskFull
	}
	return w.Writer.AppendGroup(g)
}

// recordingMetrics captures ForumMetrics calls.
type recordingMetrics struct {
	mu        sync.Mutex
	completed []string
	rejected  map[string]string
	posts     map[string]int
	votes     map[string]int
	deleted   map[string]int
	groups    int
}

var _ metrics.ForumMetrics = (*recordingMetrics)(nil)

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		rejected: map[string]string{},
		posts:    map[string]int{},
		votes:    map[string]int{},
		deleted:  map[string]int{},
	}
}

func (m *recordingMetrics) CallCompleted(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, op)
}

func (m *recordingMetrics) CallRejected(op, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[op] = code
}

func (m *recordingMetrics) PostCreated(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[kind]++
}

func (m *recordingMetrics) VoteCast(kind string, up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes[kind+"/"+metrics.Direction(up)]++
}

func (m *recordingMetrics) VoteDeleted(kind string, up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted[kind+"/"+metrics.Direction(up)]++
}

func (m *recordingMetrics) GroupCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups++
}
