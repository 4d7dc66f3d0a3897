// Package cache is the flat-file series store: one CSV per
// (symbol, kind) under the raw data directory. Writes merge with the
// existing file and land through a temp-file rename so a crash never
// leaves a half-written cache.
package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// ErrCacheCorrupt reports a cache file that failed to parse. Callers
// treat it as an absent cache and refetch the full history.
var ErrCacheCorrupt = errors.New("cache file corrupt")

var header = []string{"date", "open", "high", "low", "close", "volume"}

// Store reads and writes per-symbol series files.
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// Path returns the cache file location for one (symbol, kind). Daily
// series live in a single rolling file; intraday files are dated so
// the retention sweep can age them out.
func (s *Store) Path(symbol etf.Symbol, kind etf.Kind, day time.Time) string {
	if kind == etf.KindIntraday {
		return filepath.Join(s.dir, fmt.Sprintf("%s_intraday_%s.csv", symbol.FileStem(), day.Format("20060102")))
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_daily.csv", symbol.FileStem()))
}

// Load reads the cached series, keeping only rows within the age
// window. A missing file returns an empty series and no error; an
// unreadable or malformed file returns ErrCacheCorrupt.
func (s *Store) Load(symbol etf.Symbol, kind etf.Kind, now time.Time, maxAgeDays int) (etf.Series, error) {
	path := s.Path(symbol, kind, now)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	defer f.Close()

	series, err := readCSV(f)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol.String(),
			"path":   path,
			"error":  err.Error(),
		}).Warn("Cache file corrupt, will refetch")
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, path, err)
	}

	if maxAgeDays > 0 {
		cutoff := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -maxAgeDays)
		series = series.Since(cutoff)
	}
	return series, nil
}

// MergeAndSave merges rows into the cached series and atomically
// rewrites the file. It returns the merged series.
func (s *Store) MergeAndSave(symbol etf.Symbol, kind etf.Kind, now time.Time, rows etf.Series) (etf.Series, error) {
	existing, err := s.Load(symbol, kind, now, 0)
	if err != nil && !errors.Is(err, ErrCacheCorrupt) {
		return nil, err
	}
	// A corrupt file is replaced wholesale by the fresh rows.

	merged := existing.Merge(rows)
	if err := s.write(s.Path(symbol, kind, now), merged); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":   symbol.String(),
		"kind":     string(kind),
		"new_rows": len(rows),
		"total":    len(merged),
	}).Debug("Cache updated")
	return merged, nil
}

// write lands the series through a temp file plus rename.
func (s *Store) write(path string, series etf.Series) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, series); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace cache %s: %w", path, err)
	}
	return nil
}

func writeCSV(f *os.File, series etf.Series) error {
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, bar := range series {
		record := []string{
			bar.Day().Format("2006-01-02"),
			bar.Open.String(),
			bar.High.String(),
			bar.Low.String(),
			bar.Close.String(),
			bar.Volume.String(),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(f *os.File) (etf.Series, error) {
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records[0]) != len(header) || records[0][0] != "date" {
		return nil, fmt.Errorf("unexpected header %v", records[0])
	}

	series := make(etf.Series, 0, len(records)-1)
	for _, record := range records[1:] {
		bar, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		series = append(series, bar)
	}
	if !series.IsSortedUnique() {
		series = etf.Series{}.Merge(series)
	}
	return series, nil
}

func parseRecord(record []string) (etf.Bar, error) {
	if len(record) != len(header) {
		return etf.Bar{}, fmt.Errorf("row %v: want %d fields", record, len(header))
	}

	date, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return etf.Bar{}, fmt.Errorf("row %v: bad date: %w", record, err)
	}

	bar := etf.Bar{Date: date}
	for i, dst := range []*decimal.Decimal{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume} {
		d, err := decimal.NewFromString(record[i+1])
		if err != nil {
			return etf.Bar{}, fmt.Errorf("row %v: bad %s: %w", record, header[i+1], err)
		}
		*dst = d
	}
	return bar, nil
}
