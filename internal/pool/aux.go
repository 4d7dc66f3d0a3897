package pool

import (
	"context"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/scoring"
	"github.com/luofan/yupen/internal/vendors/eastmoney"
	"github.com/luofan/yupen/pkg/logger"
	"github.com/luofan/yupen/pkg/redis"
)

// AuxSource supplies the non-series scoring inputs for one symbol.
type AuxSource interface {
	// Refresh primes any run-wide data (the realtime quote map).
	Refresh(ctx context.Context) error
	// Aux returns the inputs for symbol. Missing pieces come back as
	// zero values, which the engine scores neutrally.
	Aux(ctx context.Context, symbol etf.Symbol) scoring.Aux
}

// VendorAux feeds the scoring engine from the Eastmoney directory
// (premium) and fund archive (holdings). Holdings change at most
// daily, so they go through the optional Redis cache.
type VendorAux struct {
	client *eastmoney.Client
	cache  *redis.Cache
	logger *logger.Logger
	quotes map[etf.Symbol]etf.Quote
}

// NewVendorAux creates the production aux source.
func NewVendorAux(client *eastmoney.Client, cache *redis.Cache, log *logger.Logger) *VendorAux {
	return &VendorAux{
		client: client,
		cache:  cache,
		logger: log,
		quotes: map[etf.Symbol]etf.Quote{},
	}
}

// Refresh pulls the full quote directory once per pool run. A vendor
// failure leaves the old map in place and is not fatal; premiums just
// score neutral.
func (v *VendorAux) Refresh(ctx context.Context) error {
	quotes, err := v.client.FetchSpot(ctx)
	if err != nil {
		v.logger.WithError(err).Warn("Quote directory refresh failed, premiums will be neutral")
		return err
	}

	m := make(map[etf.Symbol]etf.Quote, len(quotes))
	for _, q := range quotes {
		m[q.Symbol] = q
	}
	v.quotes = m
	return nil
}

// Quotes returns the last refreshed quote map.
func (v *VendorAux) Quotes() map[etf.Symbol]etf.Quote { return v.quotes }

// Aux assembles premium and holdings for one symbol.
func (v *VendorAux) Aux(ctx context.Context, symbol etf.Symbol) scoring.Aux {
	var aux scoring.Aux

	if q, ok := v.quotes[symbol]; ok {
		if p, has := q.PremiumPct(); has {
			aux.PremiumPct = p
			aux.HasPremium = true
		}
		aux.Scale = q.ScaleBillions()
	}

	var holdings []etf.Holding
	err := v.cache.GetOrSet(ctx, "holdings:"+symbol.String(), &holdings, redis.TTLHoldings, func() (interface{}, error) {
		return v.client.FetchHoldings(ctx, symbol)
	})
	if err != nil {
		v.logger.WithFields(map[string]interface{}{
			"symbol": symbol.String(),
			"error":  err.Error(),
		}).Debug("Holdings unavailable, sentiment will be neutral")
	} else {
		aux.Holdings = holdings
	}

	return aux
}
