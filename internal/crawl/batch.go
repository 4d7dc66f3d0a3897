package crawl

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// Summary is the outcome of one batch run.
type Summary struct {
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Complete reports whether nothing is left to retry.
func (s Summary) Complete() bool { return s.Failed == 0 }

// Batch runs the acquisition loop over a symbol universe, pacing
// vendor traffic and recording per-symbol progress so an interrupted
// run can resume.
type Batch struct {
	acquirer       *Acquirer
	tracker        *Tracker
	limiter        *rate.Limiter
	logger         *logger.Logger
	symbolDeadline time.Duration
}

// NewBatch creates a batch runner. requestsPerSec paces consecutive
// symbols; symbolDeadline caps one symbol's full vendor ladder walk.
func NewBatch(acquirer *Acquirer, tracker *Tracker, requestsPerSec float64, symbolDeadline time.Duration, log *logger.Logger) *Batch {
	return &Batch{
		acquirer:       acquirer,
		tracker:        tracker,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:         log,
		symbolDeadline: symbolDeadline,
	}
}

// Run crawls every symbol in the universe. Symbols already marked
// successful today are skipped, so rerunning after an interruption
// only touches the remainder. When nothing is left pending or failed
// the status file is removed.
func (b *Batch) Run(ctx context.Context, symbols []etf.Symbol, now time.Time) (Summary, error) {
	start := time.Now()
	summary := Summary{Total: len(symbols)}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		if b.tracker.SucceededOn(symbol, now) {
			summary.Skipped++
			b.logger.WithField("symbol", symbol.String()).Debug("Already crawled today, skipping")
			continue
		}

		if err := b.limiter.Wait(ctx); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		b.crawlOne(ctx, symbol, now, &summary)
	}

	if len(b.tracker.Pending()) == 0 {
		if err := b.tracker.Clear(); err != nil {
			b.logger.WithError(err).Warn("Failed to clear crawl status file")
		}
	}

	summary.Duration = time.Since(start)
	b.logger.WithFields(map[string]interface{}{
		"total":    summary.Total,
		"success":  summary.Success,
		"failed":   summary.Failed,
		"skipped":  summary.Skipped,
		"duration": summary.Duration,
	}).Info("Crawl batch finished")
	return summary, nil
}

// Resume re-crawls only the symbols the status file lists as
// in_progress or failed.
func (b *Batch) Resume(ctx context.Context, universe []etf.Symbol, now time.Time) (Summary, error) {
	pending := b.tracker.Pending()
	if len(pending) == 0 {
		b.logger.Info("No pending symbols to resume")
		return Summary{}, nil
	}

	pendingSet := make(map[string]bool, len(pending))
	for _, s := range pending {
		pendingSet[s] = true
	}

	var subset []etf.Symbol
	for _, symbol := range universe {
		if pendingSet[symbol.String()] {
			subset = append(subset, symbol)
		}
	}

	b.logger.WithField("count", len(subset)).Info("Resuming interrupted crawl")
	return b.Run(ctx, subset, now)
}

func (b *Batch) crawlOne(ctx context.Context, symbol etf.Symbol, now time.Time, summary *Summary) {
	if err := b.tracker.Mark(symbol, StateInProgress, "", now); err != nil {
		b.logger.WithError(err).Warn("Failed to mark crawl start")
	}

	symCtx := ctx
	if b.symbolDeadline > 0 {
		var cancel context.CancelFunc
		symCtx, cancel = context.WithTimeout(ctx, b.symbolDeadline)
		defer cancel()
	}

	series, err := b.acquirer.Get(symCtx, symbol, etf.KindDaily, now)
	if err != nil {
		summary.Failed++
		if markErr := b.tracker.Mark(symbol, StateFailed, err.Error(), now); markErr != nil {
			b.logger.WithError(markErr).Warn("Failed to mark crawl failure")
		}
		b.logger.WithFields(map[string]interface{}{
			"symbol": symbol.String(),
			"error":  err.Error(),
		}).Error("Symbol crawl failed")
		return
	}

	summary.Success++
	if markErr := b.tracker.Mark(symbol, StateSuccess, "", now); markErr != nil {
		b.logger.WithError(markErr).Warn("Failed to mark crawl success")
	}
	b.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"rows":   len(series),
	}).Debug("Symbol crawled")
}
