// Package crawl drives the daily acquisition batch: per-symbol status
// tracking in a JSON side file, cache-first acquisition through the
// vendor ladder and a paced batch runner with resume support.
package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// State is one symbol's crawl state. Symbols absent from the file are
// implicitly pending.
type State string

const (
	StateInProgress State = "in_progress"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

const statusFileName = "crawl_status.json"

// timestampLayout matches the persisted status timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// Record is one symbol's entry in the status file.
type Record struct {
	Status    State  `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// Tracker reads and writes the crawl status side file. The file only
// exists while a batch is incomplete; a fully successful run deletes
// it.
type Tracker struct {
	path   string
	logger *logger.Logger
}

// NewTracker creates a tracker for the status file under dir.
func NewTracker(dir string, log *logger.Logger) *Tracker {
	return &Tracker{
		path:   filepath.Join(dir, statusFileName),
		logger: log,
	}
}

// Path returns the status file location.
func (t *Tracker) Path() string { return t.path }

// Load reads the status map. A missing or unreadable file is an empty
// map, never an error; losing status only costs redundant refetches.
func (t *Tracker) Load() map[string]Record {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return map[string]Record{}
	}

	var status map[string]Record
	if err := json.Unmarshal(data, &status); err != nil {
		t.logger.WithError(err).Warn("Crawl status file unreadable, starting fresh")
		return map[string]Record{}
	}
	return status
}

// Mark updates one symbol's state and rewrites the file.
func (t *Tracker) Mark(symbol etf.Symbol, state State, errMsg string, now time.Time) error {
	status := t.Load()
	status[symbol.String()] = Record{
		Status:    state,
		Timestamp: now.Format(timestampLayout),
		Error:     errMsg,
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal crawl status: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write crawl status: %w", err)
	}
	return nil
}

// SucceededOn reports whether symbol already has a success entry
// stamped on the given calendar day. Used to make reruns idempotent.
func (t *Tracker) SucceededOn(symbol etf.Symbol, day time.Time) bool {
	rec, ok := t.Load()[symbol.String()]
	if !ok || rec.Status != StateSuccess {
		return false
	}
	stamped, err := time.Parse(timestampLayout, rec.Timestamp)
	if err != nil {
		return false
	}
	y1, m1, d1 := stamped.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Pending returns the symbols left in_progress or failed, sorted for
// deterministic resume order.
func (t *Tracker) Pending() []string {
	var pending []string
	for symbol, rec := range t.Load() {
		if rec.Status == StateInProgress || rec.Status == StateFailed {
			pending = append(pending, symbol)
		}
	}
	sort.Strings(pending)
	return pending
}

// Clear removes the status file. Called when a batch finishes with
// nothing left to retry.
func (t *Tracker) Clear() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove crawl status: %w", err)
	}
	return nil
}
