// Package dealer deals poker hands from verifiable randomness and discloses
// cards only through one-time reveals or secret-gated queries.
//
// An Engine owns no state of its own. Every operation runs inside a single
// store transaction: it either commits all of its writes or none of them.
package dealer

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/randutil"
	"github.com/lox/pokerdealer/internal/store"
)

// Seat limits for a single hand.
const (
	MinPlayers = 2
	MaxPlayers = 9
)

// AuditSink receives the log of every hand replaced by StartGame.
type AuditSink interface {
	RecordHand(ctx context.Context, entry protocol.LastHandLog) error
}

// Engine runs dealer operations against a store.
type Engine struct {
	store   store.Store
	clock   quartz.Clock
	entropy randutil.Entropy
	audit   AuditSink
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp reveals.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithEntropy sets the per-operation entropy source.
func WithEntropy(entropy randutil.Entropy) Option {
	return func(e *Engine) { e.entropy = entropy }
}

// WithAuditSink sets where replaced hands are archived.
func WithAuditSink(sink AuditSink) Option {
	return func(e *Engine) { e.audit = sink }
}

// New creates an engine over st. By default it uses the real clock and
// crypto/rand entropy.
func New(st store.Store, logger *log.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Engine{
		store:   st,
		clock:   quartz.NewReal(),
		entropy: randutil.CryptoEntropy{},
		logger:  logger.WithPrefix("dealer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Instantiate records the operator and permit audience and seeds the
// derivation counter from fresh entropy. It can only run once per store.
func (e *Engine) Instantiate(ctx context.Context, owner, contractAddress string) error {
	entropy, err := e.entropy.Random()
	if err != nil {
		return storageError(err)
	}
	counter, err := randutil.InitCounter(entropy)
	if err != nil {
		return storageError(err)
	}

	err = e.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.Config(); err == nil {
			return &Error{Kind: KindAlreadyInstantiated}
		} else if !errors.Is(err, store.ErrNotInstantiated) {
			return err
		}
		if err := tx.PutConfig(game.Config{Owner: owner, ContractAddress: contractAddress}); err != nil {
			return err
		}
		return tx.PutCounter(counter)
	})
	if err != nil {
		return storageError(err)
	}

	e.logger.Info("Dealer instantiated", "owner", owner, "contract", contractAddress)
	return nil
}

// Instantiated reports whether Instantiate has run against the store.
func (e *Engine) Instantiated(ctx context.Context) (bool, error) {
	var ok bool
	err := e.store.View(ctx, func(tx store.Tx) error {
		_, err := tx.Config()
		switch {
		case err == nil:
			ok = true
		case errors.Is(err, store.ErrNotInstantiated):
		default:
			return err
		}
		return nil
	})
	return ok, storageError(err)
}

// Config returns the stored deployment configuration.
func (e *Engine) Config(ctx context.Context) (game.Config, error) {
	var cfg game.Config
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		cfg, err = tx.Config()
		return err
	})
	return cfg, storageError(err)
}

// Counter returns the current derivation counter.
func (e *Engine) Counter(ctx context.Context) (randutil.Counter, error) {
	var c randutil.Counter
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		c, err = tx.Counter()
		return err
	})
	return c, storageError(err)
}

// Authorize fails with KindUnauthorized unless sender is the configured owner.
func (e *Engine) Authorize(ctx context.Context, sender string) error {
	cfg, err := e.Config(ctx)
	if err != nil {
		return err
	}
	if sender == "" || sender != cfg.Owner {
		return &Error{Kind: KindUnauthorized}
	}
	return nil
}
