// Package pool turns score records into the dated two-bucket pool
// artifact: selection, fallback padding, CSV snapshots and the
// end-to-end generator.
package pool

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/strategy"
)

// Selector partitions and ranks score records into the two buckets.
type Selector struct {
	topK          int
	riskThreshold float64
}

// NewSelector creates a selector from the loaded strategy.
func NewSelector(cfg *strategy.Config) *Selector {
	return &Selector{
		topK:          cfg.Selection.TopK,
		riskThreshold: cfg.Selection.StableRiskThreshold,
	}
}

// TopK returns the per-bucket size.
func (s *Selector) TopK() int { return s.topK }

// Select partitions records by the risk threshold and returns the
// top-K of each bucket. Stable candidates need a risk sub-score at or
// above the threshold; everything else competes for the aggressive
// bucket. Ranking is by total score; ties break by risk in the stable
// bucket and by return in the aggressive one, then by symbol so runs
// are deterministic.
func (s *Selector) Select(records []etf.ScoreRecord) (stable, aggressive []etf.ScoreRecord) {
	for _, r := range records {
		if r.Risk >= s.riskThreshold {
			stable = append(stable, r)
		} else {
			aggressive = append(aggressive, r)
		}
	}

	sortRecords(stable, func(r etf.ScoreRecord) float64 { return r.Risk })
	sortRecords(aggressive, func(r etf.ScoreRecord) float64 { return r.Return })

	if len(stable) > s.topK {
		stable = stable[:s.topK]
	}
	if len(aggressive) > s.topK {
		aggressive = aggressive[:s.topK]
	}
	return stable, aggressive
}

func sortRecords(records []etf.ScoreRecord, tiebreak func(etf.ScoreRecord) float64) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Total != records[j].Total {
			return records[i].Total > records[j].Total
		}
		if tiebreak(records[i]) != tiebreak(records[j]) {
			return tiebreak(records[i]) > tiebreak(records[j])
		}
		return records[i].Symbol < records[j].Symbol
	})
}

// BuildPool assembles the immutable pool artifact from the two ranked
// buckets.
func BuildPool(stable, aggressive []etf.ScoreRecord, now time.Time) *etf.Pool {
	pool := &etf.Pool{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Entries:     make([]etf.PoolEntry, 0, len(stable)+len(aggressive)),
	}

	for _, r := range stable {
		pool.Entries = append(pool.Entries, etf.PoolEntry{
			Symbol:      r.Symbol,
			Name:        r.Name,
			Bucket:      etf.BucketStable,
			Score:       r,
			GeneratedAt: now,
		})
	}
	for _, r := range aggressive {
		pool.Entries = append(pool.Entries, etf.PoolEntry{
			Symbol:      r.Symbol,
			Name:        r.Name,
			Bucket:      etf.BucketAggressive,
			Score:       r,
			GeneratedAt: now,
		})
	}
	return pool
}
