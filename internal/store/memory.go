package store

import (
	"context"
	"sync"

	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/randutil"
)

// Memory is an in-process Store. Tables are held encoded so that callers
// never share state with the store.
type Memory struct {
	mu      sync.RWMutex
	tables  map[uint32][]byte
	counter *randutil.Counter
	config  *game.Config
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[uint32][]byte)}
}

// View runs fn against a read-only snapshot.
func (m *Memory) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryTx{m: m})
}

// Update runs fn and applies its writes only if it returns nil.
func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m, writable: true, tables: make(map[uint32][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, data := range tx.tables {
		m.tables[id] = data
	}
	if tx.counter != nil {
		m.counter = tx.counter
	}
	if tx.config != nil {
		m.config = tx.config
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memoryTx struct {
	m        *Memory
	writable bool

	// pending writes
	tables  map[uint32][]byte
	counter *randutil.Counter
	config  *game.Config
}

func (tx *memoryTx) Table(id uint32) (*game.Table, bool, error) {
	data, ok := tx.tables[id]
	if !ok {
		data, ok = tx.m.tables[id]
	}
	if !ok {
		return nil, false, nil
	}
	table, err := decodeTable(data)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func (tx *memoryTx) PutTable(id uint32, table *game.Table) error {
	if !tx.writable {
		return ErrReadOnly
	}
	data, err := encodeTable(table)
	if err != nil {
		return err
	}
	tx.tables[id] = data
	return nil
}

func (tx *memoryTx) Counter() (randutil.Counter, error) {
	switch {
	case tx.counter != nil:
		return *tx.counter, nil
	case tx.m.counter != nil:
		return *tx.m.counter, nil
	default:
		return randutil.Counter{}, ErrNotInstantiated
	}
}

func (tx *memoryTx) PutCounter(c randutil.Counter) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.counter = &c
	return nil
}

func (tx *memoryTx) Config() (game.Config, error) {
	switch {
	case tx.config != nil:
		return *tx.config, nil
	case tx.m.config != nil:
		return *tx.m.config, nil
	default:
		return game.Config{}, ErrNotInstantiated
	}
}

func (tx *memoryTx) PutConfig(cfg game.Config) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.config = &cfg
	return nil
}
