// Package store persists dealt tables, the derivation counter and the
// dealer configuration.
//
// All access goes through transactions. Update runs a closure against a
// single consistent snapshot and commits every write it made, or none of
// them if the closure returns an error.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/randutil"
)

var (
	// ErrNotInstantiated is returned when the counter or configuration has
	// not been written yet.
	ErrNotInstantiated = errors.New("store: dealer not instantiated")

	// ErrReadOnly is returned by writes inside View.
	ErrReadOnly = errors.New("store: read-only transaction")
)

// Tx is a view of the store inside one transaction.
type Tx interface {
	// Table returns the table stored under id. The returned value is a copy;
	// changes are only persisted through PutTable.
	Table(id uint32) (*game.Table, bool, error)
	PutTable(id uint32, table *game.Table) error

	Counter() (randutil.Counter, error)
	PutCounter(c randutil.Counter) error

	Config() (game.Config, error)
	PutConfig(cfg game.Config) error
}

// Store is a transactional key-value store for dealer state.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

func encodeTable(table *game.Table) ([]byte, error) {
	data, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("store: encode table: %w", err)
	}
	return data, nil
}

func decodeTable(data []byte) (*game.Table, error) {
	var table game.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("store: decode table: %w", err)
	}
	return &table, nil
}
