package crawl

import (
	"context"
	"time"

	"github.com/luofan/yupen/internal/cache"
	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/provider"
	"github.com/luofan/yupen/pkg/logger"
)

// Acquirer produces an up-to-date series for one symbol: cache first,
// vendor ladder for whatever the cache is missing, merge and persist.
type Acquirer struct {
	store      *cache.Store
	chain      *provider.Chain
	logger     *logger.Logger
	maxAgeDays int
}

// NewAcquirer creates an acquirer over the given store and vendor
// chain. maxAgeDays bounds how far back cache loads reach.
func NewAcquirer(store *cache.Store, chain *provider.Chain, log *logger.Logger, maxAgeDays int) *Acquirer {
	return &Acquirer{
		store:      store,
		chain:      chain,
		logger:     log,
		maxAgeDays: maxAgeDays,
	}
}

// Get returns the series of the given kind for symbol, fetching only
// the gap past the cached tail. A cache that already covers the
// latest complete trading day is returned without any network
// traffic. A corrupt cache triggers a full-history refetch.
func (a *Acquirer) Get(ctx context.Context, symbol etf.Symbol, kind etf.Kind, now time.Time) (etf.Series, error) {
	cached, err := a.store.Load(symbol, kind, now, a.maxAgeDays)
	if err != nil {
		// Corrupt cache: refetch everything, MergeAndSave replaces
		// the bad file.
		cached = nil
	}

	var since time.Time
	if len(cached) > 0 {
		latest := market.LatestCompleteTradingDay(now)
		if !cached.LastDate().Before(latest) {
			a.logger.WithFields(map[string]interface{}{
				"symbol": symbol.String(),
				"last":   cached.LastDate().Format("2006-01-02"),
			}).Debug("Cache fresh, skipping fetch")
			return cached, nil
		}
		since = cached.LastDate().AddDate(0, 0, 1)
	}

	rows, vendor, err := a.chain.Resolve(ctx, symbol, kind, since)
	if err != nil {
		return nil, err
	}

	merged, err := a.store.MergeAndSave(symbol, kind, now, rows)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":  symbol.String(),
		"vendor":  vendor,
		"fetched": len(rows),
		"total":   len(merged),
	}).Info("Acquired series")
	return merged, nil
}
