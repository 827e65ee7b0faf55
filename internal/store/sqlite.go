package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/randutil"

	_ "modernc.org/sqlite"
)

const (
	keyCounter = "counter"
	keyConfig  = "config"
)

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite database path")
	}
	memory := path == ":memory:"
	if !memory {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("store: create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// One connection serialises every transaction and keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pragmas := []string{`PRAGMA busy_timeout = 5000;`}
	if !memory {
		pragmas = append(pragmas, `PRAGMA journal_mode = WAL;`)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS poker_tables (
    table_id INTEGER PRIMARY KEY,
    hand_ref INTEGER NOT NULL,
    data     BLOB NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (s *SQLite) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()
	return fn(&sqliteTx{ctx: ctx, tx: tx})
}

// Update runs fn inside a transaction and commits it if fn returns nil.
func (s *SQLite) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx, writable: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

func (t *sqliteTx) Table(id uint32) (*game.Table, bool, error) {
	var data []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT data FROM poker_tables WHERE table_id = ?`, int64(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load table %d: %w", id, err)
	}
	table, err := decodeTable(data)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func (t *sqliteTx) PutTable(id uint32, table *game.Table) error {
	if !t.writable {
		return ErrReadOnly
	}
	data, err := encodeTable(table)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `
INSERT INTO poker_tables (table_id, hand_ref, data)
VALUES (?, ?, ?)
ON CONFLICT (table_id) DO UPDATE SET
    hand_ref = excluded.hand_ref,
    data = excluded.data`, int64(id), int64(table.HandRef), data)
	if err != nil {
		return fmt.Errorf("store: save table %d: %w", id, err)
	}
	return nil
}

func (t *sqliteTx) get(key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotInstantiated
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", key, err)
	}
	return value, nil
}

func (t *sqliteTx) put(key string, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(t.ctx, `
INSERT INTO kv (key, value)
VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	return nil
}

func (t *sqliteTx) Counter() (randutil.Counter, error) {
	value, err := t.get(keyCounter)
	if err != nil {
		return randutil.Counter{}, err
	}
	return randutil.CounterFromBytes(value)
}

func (t *sqliteTx) PutCounter(c randutil.Counter) error {
	return t.put(keyCounter, c.Bytes())
}

func (t *sqliteTx) Config() (game.Config, error) {
	value, err := t.get(keyConfig)
	if err != nil {
		return game.Config{}, err
	}
	var cfg game.Config
	if err := json.Unmarshal(value, &cfg); err != nil {
		return game.Config{}, fmt.Errorf("store: decode config: %w", err)
	}
	return cfg, nil
}

func (t *sqliteTx) PutConfig(cfg game.Config) error {
	value, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("store: encode config: %w", err)
	}
	return t.put(keyConfig, value)
}
