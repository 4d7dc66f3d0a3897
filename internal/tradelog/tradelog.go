// Package tradelog appends every pushed signal to a dated CSV ledger.
// The ledger is the one artifact the retention cleanup never touches.
package tradelog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/signal"
	"github.com/luofan/yupen/pkg/logger"
)

const timeLayout = "2006-01-02 15:04"

var header = []string{"time", "code", "name", "action", "position_pct", "total_score", "rationale"}

// Entry is one row of the trade ledger.
type Entry struct {
	Time        time.Time
	Symbol      string
	Name        string
	Action      signal.Action
	PositionPct float64
	Total       float64
	Rationale   string
}

// Log writes trade entries to trade_log_YYYYMMDD.csv files, one file
// per Beijing calendar day, append-only.
type Log struct {
	dir    string
	logger *logger.Logger
}

// NewLog creates the ledger directory if needed.
func NewLog(dir string, log *logger.Logger) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trade log dir: %w", err)
	}
	return &Log{dir: dir, logger: log}, nil
}

// Append records one signal. The file for the entry's Beijing day is
// created with a header on first write.
func (l *Log) Append(e Entry) error {
	name := fmt.Sprintf("trade_log_%s.csv", market.ToBeijing(e.Time).Format("20060102"))
	path := filepath.Join(l.dir, name)

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trade log %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write trade log header: %w", err)
		}
	}
	record := []string{
		market.ToBeijing(e.Time).Format(timeLayout),
		e.Symbol,
		e.Name,
		string(e.Action),
		strconv.FormatFloat(e.PositionPct, 'f', 0, 64),
		strconv.FormatFloat(e.Total, 'f', 1, 64),
		e.Rationale,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write trade log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	l.logger.WithFields(map[string]interface{}{
		"symbol": e.Symbol,
		"action": string(e.Action),
	}).Info("Trade logged")
	return nil
}

// ReadAll returns every ledger entry across all dated files, oldest
// file first, rows in append order within a file.
func (l *Log) ReadAll() ([]Entry, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read trade log dir: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), "trade_log_") && strings.HasSuffix(de.Name(), ".csv") {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	var entries []Entry
	for _, name := range names {
		fileEntries, err := l.readFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

func (l *Log) readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade log %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trade log %s: %w", path, err)
	}
	if len(records) < 1 || len(records[0]) != len(header) {
		return nil, fmt.Errorf("trade log %s: unexpected layout", path)
	}

	entries := make([]Entry, 0, len(records)-1)
	for _, row := range records[1:] {
		ts, err := time.ParseInLocation(timeLayout, row[0], market.TZ())
		if err != nil {
			return nil, fmt.Errorf("trade log %s: bad timestamp %q: %w", path, row[0], err)
		}
		position, _ := strconv.ParseFloat(row[4], 64)
		total, _ := strconv.ParseFloat(row[5], 64)
		entries = append(entries, Entry{
			Time:        ts,
			Symbol:      row[1],
			Name:        row[2],
			Action:      signal.Action(row[3]),
			PositionPct: position,
			Total:       total,
			Rationale:   row[6],
		})
	}
	return entries, nil
}
