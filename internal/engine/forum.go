package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle"
	"github.com/roach88/ombu/internal/storage"
)

// BootstrapGroupName is the name of the group created by Init.
const BootstrapGroupName = "Invisible Garden"

// Forum is the forum state machine over a storage backend and an oracle.
//
// Thread-safety: all methods are safe for concurrent use. Mutating calls are
// serialized by mu; reads run in their own storage transactions.
type Forum struct {
	mu sync.Mutex

	store   storage.Storage
	oracle  oracle.Oracle
	log     zerolog.Logger
	metrics metrics.ForumMetrics
	clock   Clock
	callIDs CallIDGenerator
	bus     *bus
}

// Option configures a Forum.
type Option func(*Forum)

// WithLogger sets the logger. Default: zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(f *Forum) {
		f.log = log
	}
}

// WithMetrics sets the metrics collector. Default: metrics.NoopCollector.
func WithMetrics(m metrics.ForumMetrics) Option {
	return func(f *Forum) {
		f.metrics = m
	}
}

// WithClock sets the block timestamp source. Default: WallClock.
func WithClock(c Clock) Option {
	return func(f *Forum) {
		f.clock = c
	}
}

// WithCallIDs sets the call id generator. Default: UUIDv7Generator.
func WithCallIDs(g CallIDGenerator) Option {
	return func(f *Forum) {
		f.callIDs = g
	}
}

// New creates a Forum. The store and oracle are owned by the caller.
func New(store storage.Storage, orc oracle.Oracle, opts ...Option) *Forum {
	f := &Forum{
		store:   store,
		oracle:  orc,
		log:     zerolog.Nop(),
		metrics: metrics.NewNoopCollector(),
		clock:   WallClock{},
		callIDs: UUIDv7Generator{},
		bus:     newBus(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With().Str("component", "forum").Logger()
	return f
}

// Subscribe returns a subscription to events committed from now on.
func (f *Forum) Subscribe() *Subscription {
	return f.bus.subscribe()
}

// call is the state of one public mutating operation.
type call struct {
	f      *Forum
	ctx    context.Context
	op     string
	id     string
	fields map[string]interface{}
	events []model.Event
}

func (c *call) set(key string, value interface{}) {
	c.fields[key] = value
}

// run executes fn as one serialized public call and records its outcome.
func (f *Forum) run(ctx context.Context, op string, fn func(c *call) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	c := &call{
		f:      f,
		ctx:    ctx,
		op:     op,
		id:     f.callIDs.Generate(),
		fields: make(map[string]interface{}),
	}
	log := f.log.With().Str("op", op).Str("call_id", c.id).Logger()
	log.Debug().Msg("call started")

	var rollback func() error
	if cp, ok := f.oracle.(oracle.Checkpointer); ok {
		rollback = cp.Checkpoint()
	}

	if err := fn(c); err != nil {
		if rollback != nil {
			if rbErr := rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("oracle rollback failed")
			}
		}
		code := CodeOf(err)
		label := string(code)
		if label == "" {
			label = "INTERNAL"
		}
		f.metrics.CallRejected(op, label)
		if code != "" {
			log.Warn().Fields(c.fields).Str("code", label).Err(err).Msg("call rejected")
		} else {
			log.Error().Fields(c.fields).Err(err).Msg("call failed")
		}
		return err
	}

	f.metrics.CallCompleted(op, time.Since(start))
	log.Info().Fields(c.fields).Int("events", len(c.events)).Msg("call completed")
	f.bus.publish(c.events)
	return nil
}

// update runs fn in the call's single storage transaction.
func (c *call) update(fn func(w storage.Writer) error) error {
	c.events = c.events[:0]
	if err := c.f.store.Update(c.ctx, fn); err != nil {
		c.events = nil
		return err
	}
	return nil
}

// emit sequences n and appends it to the event log inside w.
func (c *call) emit(w storage.Writer, n model.Notification) error {
	last, err := w.LastEventSeq()
	if err != nil {
		return fmt.Errorf("emit %s: %w", n.EventType(), err)
	}
	ev, err := model.NewEvent(last+1, c.id, n)
	if err != nil {
		return fmt.Errorf("emit %s: %w", n.EventType(), err)
	}
	if err := w.AppendEvent(ev); err != nil {
		return fmt.Errorf("emit %s: %w", n.EventType(), err)
	}
	c.events = append(c.events, ev)
	return nil
}

// ledger returns the initialized ledger or NOT_INITIALIZED.
func (c *call) ledger() (model.Ledger, error) {
	var l model.Ledger
	err := c.f.store.View(c.ctx, func(r storage.Reader) error {
		var err error
		l, err = readLedger(r)
		return err
	})
	return l, err
}

func readLedger(r storage.Reader) (model.Ledger, error) {
	l, err := r.Ledger()
	if errors.Is(err, storage.ErrNotFound) {
		return model.Ledger{}, newError(CodeNotInitialized, "forum has not been initialized", nil)
	}
	if err != nil {
		return model.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	return l, nil
}

// requireAdmin returns NOT_ALLOWED unless sender is the forum admin.
func (c *call) requireAdmin(sender model.Address) (model.Ledger, error) {
	l, err := c.ledger()
	if err != nil {
		return l, err
	}
	if sender != l.Admin {
		return l, newError(CodeNotAllowed, "caller is not the admin", map[string]string{
			"sender": sender.Hex(),
		})
	}
	return l, nil
}

// oracleError maps an oracle failure into a ForumError.
func oracleError(op string, err error) error {
	if oracle.IsProofError(err) {
		return wrapError(CodeProofValidationFailed, "proof rejected", err)
	}
	return wrapError(CodeOracleFailure, op, err)
}

// now returns the block timestamp for a new record.
func (c *call) now() (uint32, error) {
	ts := c.f.clock.Now()
	if ts == 0 {
		return 0, errors.New("clock returned timestamp 0")
	}
	return ts, nil
}
