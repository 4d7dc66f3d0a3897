package etf

import "time"

// Bucket is the risk-based partition of the pool.
type Bucket string

const (
	// BucketStable holds the low-risk picks (risk sub-score above the
	// stable threshold).
	BucketStable Bucket = "stable"
	// BucketAggressive holds everything else.
	BucketAggressive Bucket = "aggressive"
)

// PoolEntry is one selected instrument with its score snapshot.
type PoolEntry struct {
	Symbol      string      `json:"symbol"`
	Name        string      `json:"name,omitempty"`
	Bucket      Bucket      `json:"bucket"`
	Score       ScoreRecord `json:"score"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Pool is the ranked, bucketed selection produced by one run.
// It is immutable once generated; a scheduled update produces a whole
// new pool rather than patching entries in place.
type Pool struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Entries     []PoolEntry `json:"entries"`
}

// Stable returns the stable-bucket entries in rank order.
func (p *Pool) Stable() []PoolEntry {
	return p.bucket(BucketStable)
}

// Aggressive returns the aggressive-bucket entries in rank order.
func (p *Pool) Aggressive() []PoolEntry {
	return p.bucket(BucketAggressive)
}

func (p *Pool) bucket(b Bucket) []PoolEntry {
	out := make([]PoolEntry, 0, len(p.Entries)/2)
	for _, e := range p.Entries {
		if e.Bucket == b {
			out = append(out, e)
		}
	}
	return out
}

// Symbols returns every selected symbol in entry order.
func (p *Pool) Symbols() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Symbol
	}
	return out
}
