// Package provider runs the vendor fallback ladder. Each vendor
// implements Client; Chain tries them in order and returns the first
// usable series, so a single vendor outage never stalls a crawl.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// Client fetches daily bars for one fund from one vendor.
type Client interface {
	Name() string
	FetchDaily(ctx context.Context, symbol etf.Symbol, since time.Time) (etf.Series, error)
}

// ErrUnavailable reports that every vendor in the chain failed or
// answered empty.
var ErrUnavailable = errors.New("no vendor could supply data")

// ErrSchemaMismatch marks a vendor payload that arrived but could not
// be validated into bars. The vendor parsers wrap their failures in it
// so the chain can tell a broken payload from a broken connection.
var ErrSchemaMismatch = errors.New("vendor payload failed schema validation")

// ErrUnsupportedKind reports a bar kind none of the wired vendor
// endpoints serves.
var ErrUnsupportedKind = errors.New("no vendor endpoint for bar kind")

// Chain is an ordered vendor ladder.
type Chain struct {
	clients []Client
	logger  *logger.Logger
}

// NewChain creates a fallback chain in vendor priority order.
func NewChain(log *logger.Logger, clients ...Client) *Chain {
	return &Chain{clients: clients, logger: log}
}

// Names returns the vendor names in ladder order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.clients))
	for i, client := range c.clients {
		names[i] = client.Name()
	}
	return names
}

// Resolve walks the ladder and returns the first non-empty series
// together with the vendor that produced it. A vendor failure or an
// empty answer moves on to the next vendor; only context cancellation
// aborts the walk early. Every wired vendor serves daily bars only,
// so any other kind is rejected up front.
func (c *Chain) Resolve(ctx context.Context, symbol etf.Symbol, kind etf.Kind, since time.Time) (etf.Series, string, error) {
	if kind != etf.KindDaily {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if len(c.clients) == 0 {
		return nil, "", ErrUnavailable
	}

	var lastErr error
	for _, client := range c.clients {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		series, err := client.FetchDaily(ctx, symbol, since)
		if err != nil {
			lastErr = err
			c.logger.WithFields(map[string]interface{}{
				"vendor": client.Name(),
				"symbol": symbol.String(),
				"kind":   failureKind(err),
				"error":  err.Error(),
			}).Warn("Vendor fetch failed, trying next")
			continue
		}
		if len(series) == 0 {
			c.logger.WithFields(map[string]interface{}{
				"vendor": client.Name(),
				"symbol": symbol.String(),
				"kind":   "empty",
			}).Warn("Vendor answered empty, trying next")
			continue
		}

		if !series.IsSortedUnique() {
			series = etf.Series{}.Merge(series)
		}
		return series, client.Name(), nil
	}

	if lastErr != nil {
		return nil, "", errors.Join(ErrUnavailable, lastErr)
	}
	return nil, "", ErrUnavailable
}

// failureKind labels a fetch error for the log: a payload the vendor
// sent but the parser rejected is malformed-schema, everything else is
// treated as a network-level failure.
func failureKind(err error) string {
	if errors.Is(err, ErrSchemaMismatch) {
		return "malformed-schema"
	}
	return "network"
}
