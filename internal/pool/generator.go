package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luofan/yupen/internal/cache"
	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/scoring"
	"github.com/luofan/yupen/internal/strategy"
	"github.com/luofan/yupen/pkg/logger"
)

// Generator runs the full pool pass: score every cached symbol,
// select the buckets, pad short buckets from the strategy fallback
// lists and persist the dated snapshot.
type Generator struct {
	store      *cache.Store
	engine     *scoring.Engine
	selector   *Selector
	snapshot   *Snapshot
	aux        AuxSource
	strategy   *strategy.Config
	logger     *logger.Logger
	maxAgeDays int
}

// NewGenerator wires the pool pipeline.
func NewGenerator(store *cache.Store, engine *scoring.Engine, selector *Selector, snapshot *Snapshot, aux AuxSource, cfg *strategy.Config, log *logger.Logger, maxAgeDays int) *Generator {
	return &Generator{
		store:      store,
		engine:     engine,
		selector:   selector,
		snapshot:   snapshot,
		aux:        aux,
		strategy:   cfg,
		logger:     log,
		maxAgeDays: maxAgeDays,
	}
}

// Generate scores the universe and produces the pool plus a push-ready
// summary. Scoring reads only the cache; acquisition is the crawl
// batch's job and runs beforehand. Symbols without cached history are
// skipped rather than scored on nothing.
func (g *Generator) Generate(ctx context.Context, universe []etf.Listing, now time.Time) (*etf.Pool, string, error) {
	if err := g.aux.Refresh(ctx); err != nil {
		g.logger.WithError(err).Warn("Aux refresh failed, scoring with neutral premiums")
	}

	records := make([]etf.ScoreRecord, 0, len(universe))
	skipped := 0
	for _, listing := range universe {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		record, ok := g.scoreSymbol(ctx, listing.Symbol, listing.Name, now)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, "", fmt.Errorf("no symbol had scorable history (universe %d)", len(universe))
	}

	stable, aggressive := g.selector.Select(records)
	stable = g.pad(ctx, stable, etf.BucketStable, now)
	aggressive = g.pad(ctx, aggressive, etf.BucketAggressive, now)

	p := BuildPool(stable, aggressive, now)
	if _, err := g.snapshot.Write(p); err != nil {
		return nil, "", err
	}

	g.logger.WithFields(map[string]interface{}{
		"scored":     len(records),
		"skipped":    skipped,
		"stable":     len(stable),
		"aggressive": len(aggressive),
	}).Info("Pool generated")
	return p, Summarize(p), nil
}

// scoreSymbol loads cached history and scores it. Corrupt or missing
// caches make the symbol unscorable for this pass.
func (g *Generator) scoreSymbol(ctx context.Context, symbol etf.Symbol, name string, now time.Time) (etf.ScoreRecord, bool) {
	series, err := g.store.Load(symbol, etf.KindDaily, now, g.maxAgeDays)
	if err != nil || len(series) == 0 {
		return etf.ScoreRecord{}, false
	}
	return g.engine.Score(symbol, name, series, g.aux.Aux(ctx, symbol)), true
}

// pad fills a short bucket from the strategy fallback list, skipping
// symbols already selected anywhere and fallbacks without history.
func (g *Generator) pad(ctx context.Context, bucket []etf.ScoreRecord, kind etf.Bucket, now time.Time) []etf.ScoreRecord {
	need := g.selector.TopK() - len(bucket)
	if need <= 0 {
		return bucket
	}

	taken := make(map[string]bool, len(bucket))
	for _, r := range bucket {
		taken[r.Symbol] = true
	}

	for _, symbol := range g.strategy.FallbackSymbols(kind) {
		if need == 0 {
			break
		}
		if taken[symbol.String()] {
			continue
		}
		record, ok := g.scoreSymbol(ctx, symbol, "", now)
		if !ok {
			g.logger.WithField("symbol", symbol.String()).Warn("Fallback symbol has no cached history, skipping")
			continue
		}
		bucket = append(bucket, record)
		taken[symbol.String()] = true
		need--
	}

	if need > 0 {
		g.logger.WithFields(map[string]interface{}{
			"bucket": string(kind),
			"short":  need,
		}).Warn("Bucket still short after fallback padding")
	}
	return bucket
}

// Summarize renders the push-ready markdown digest of a pool.
func Summarize(p *etf.Pool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## ETF pool %s\n", p.GeneratedAt.Format("2006-01-02"))

	writeBucket := func(title string, entries []etf.PoolEntry) {
		fmt.Fprintf(&b, "\n**%s**\n", title)
		for i, e := range entries {
			name := e.Name
			if name == "" {
				name = e.Symbol
			}
			fmt.Fprintf(&b, "%d. %s (%s) total %.1f risk %.1f return %.1f\n",
				i+1, name, e.Symbol, e.Score.Total, e.Score.Risk, e.Score.Return)
		}
	}
	writeBucket("Stable", p.Stable())
	writeBucket("Aggressive", p.Aggressive())
	return b.String()
}
