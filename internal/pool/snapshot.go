package pool

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// ErrNoPool reports that no snapshot has been generated yet.
var ErrNoPool = errors.New("no pool snapshot available")

var snapshotHeader = []string{
	"bucket", "code", "name", "total_score", "update_time",
	"liquidity_score", "risk_score", "return_score", "premium_score", "sentiment_score",
}

// Snapshot persists pools as dated CSV files and reads the newest one
// back.
type Snapshot struct {
	dir    string
	logger *logger.Logger
}

// NewSnapshot creates a snapshot store rooted at dir.
func NewSnapshot(dir string, log *logger.Logger) (*Snapshot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pool dir: %w", err)
	}
	return &Snapshot{dir: dir, logger: log}, nil
}

// Write persists the pool as stock_pool_YYYYMMDD.csv, replacing any
// earlier snapshot from the same day.
func (s *Snapshot) Write(pool *etf.Pool) (string, error) {
	name := fmt.Sprintf("stock_pool_%s.csv", pool.GeneratedAt.Format("20060102"))
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(snapshotHeader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write snapshot header: %w", err)
	}
	updateTime := pool.GeneratedAt.Format("2006-01-02 15:04")
	for _, e := range pool.Entries {
		record := []string{
			string(e.Bucket),
			e.Symbol,
			e.Name,
			formatScore(e.Score.Total),
			updateTime,
			formatScore(e.Score.Liquidity),
			formatScore(e.Score.Risk),
			formatScore(e.Score.Return),
			formatScore(e.Score.Premium),
			formatScore(e.Score.Sentiment),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write snapshot row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace snapshot %s: %w", path, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"file":    name,
		"entries": len(pool.Entries),
	}).Info("Pool snapshot written")
	return path, nil
}

// Latest reads the newest snapshot back. The dated file names sort
// lexically, so the last one is the newest.
func (s *Snapshot) Latest() (*etf.Pool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read pool dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "stock_pool_") && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, ErrNoPool
	}
	sort.Strings(names)
	name := names[len(names)-1]

	return s.read(filepath.Join(s.dir, name))
}

func (s *Snapshot) read(path string) (*etf.Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(records) < 1 || len(records[0]) != len(snapshotHeader) {
		return nil, fmt.Errorf("snapshot %s: unexpected layout", path)
	}

	pool := &etf.Pool{}
	for _, row := range records[1:] {
		score := etf.ScoreRecord{
			Symbol:    row[1],
			Name:      row[2],
			Total:     parseScore(row[3]),
			Liquidity: parseScore(row[5]),
			Risk:      parseScore(row[6]),
			Return:    parseScore(row[7]),
			Premium:   parseScore(row[8]),
			Sentiment: parseScore(row[9]),
		}
		generatedAt, _ := time.Parse("2006-01-02 15:04", row[4])
		if pool.GeneratedAt.IsZero() {
			pool.GeneratedAt = generatedAt
		}
		pool.Entries = append(pool.Entries, etf.PoolEntry{
			Symbol:      row[1],
			Name:        row[2],
			Bucket:      etf.Bucket(row[0]),
			Score:       score,
			GeneratedAt: generatedAt,
		})
	}
	return pool, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func parseScore(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
