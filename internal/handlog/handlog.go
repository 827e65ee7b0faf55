// Package handlog archives the public log of every finished hand on disk,
// one JSON file per hand under <dir>/table-<id>/hand-<ref>.json.
package handlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerdealer/internal/fileutil"
	"github.com/lox/pokerdealer/internal/protocol"
)

const defaultDir = "hands"

// Record is the archived form of a hand log.
type Record struct {
	ArchivedAt time.Time            `json:"archived_at"`
	Hand       protocol.LastHandLog `json:"hand"`
}

// Writer stores hand logs as files.
type Writer struct {
	dir    string
	clock  quartz.Clock
	logger *log.Logger

	mu sync.Mutex
}

// NewWriter creates a writer rooted at dir. A nil clock uses real time.
func NewWriter(dir string, clock quartz.Clock, logger *log.Logger) *Writer {
	if dir == "" {
		dir = defaultDir
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Writer{
		dir:    dir,
		clock:  clock,
		logger: logger.WithPrefix("handlog"),
	}
}

// Path returns the file a hand is archived to.
func (w *Writer) Path(tableID, handRef uint32) string {
	return filepath.Join(w.dir, fmt.Sprintf("table-%d", tableID), fmt.Sprintf("hand-%d.json", handRef))
}

// RecordHand writes entry to disk, replacing any earlier archive of the same
// hand.
func (w *Writer) RecordHand(ctx context.Context, entry protocol.LastHandLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.Path(entry.TableID, entry.HandRef)
	rec := Record{ArchivedAt: w.clock.Now(), Hand: entry}
	if err := fileutil.WriteJSONAtomic(path, rec, 0o644); err != nil {
		return fmt.Errorf("handlog: %w", err)
	}
	w.logger.Debug("Archived hand", "table", entry.TableID, "hand", entry.HandRef, "path", path)
	return nil
}

// Read loads an archived hand.
func (w *Writer) Read(tableID, handRef uint32) (*Record, error) {
	data, err := os.ReadFile(w.Path(tableID, handRef))
	if err != nil {
		return nil, fmt.Errorf("handlog: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("handlog: decode: %w", err)
	}
	return &rec, nil
}
