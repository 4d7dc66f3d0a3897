package sina

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/provider"
)

// The endpoint caps datalen at 1023 rows.
const maxDatalen = 1023

// sinaBar is one row of the CN_MarketData kline payload. Every value
// arrives as a string.
type sinaBar struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// FetchDaily fetches daily bars for one fund. The endpoint has no
// start-date parameter, so the row count is sized from since and the
// caller-side merge discards overlap.
func (c *Client) FetchDaily(ctx context.Context, symbol etf.Symbol, since time.Time) (etf.Series, error) {
	params := url.Values{}
	params.Set("symbol", symbol.SinaCode())
	params.Set("scale", "240") // daily bars
	params.Set("ma", "no")
	params.Set("datalen", strconv.Itoa(datalenFor(since, time.Now())))

	body, err := c.fetchBody(ctx, c.klineURL, params)
	if err != nil {
		return nil, err
	}

	series, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("parse kline response failed: %w", err)
	}
	if !since.IsZero() {
		series = series.Since(since)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"count":  len(series),
	}).Debug("Fetched sina daily bars")
	return series, nil
}

// datalenFor sizes the requested row count: full depth for a cold
// cache, a padded calendar-day window for incremental pulls.
func datalenFor(since, now time.Time) int {
	if since.IsZero() {
		return maxDatalen
	}
	days := int(now.Sub(since).Hours()/24) + 10
	if days < 30 {
		return 30
	}
	if days > maxDatalen {
		return maxDatalen
	}
	return days
}

// parseKlines decodes the string-valued kline payload into a series.
// Failures wrap provider.ErrSchemaMismatch; the endpoint answers HTML
// error pages with status 200, so a decode failure is the usual way a
// block shows up.
func parseKlines(body []byte) (etf.Series, error) {
	var rows []sinaBar
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", provider.ErrSchemaMismatch, err)
	}

	series := make(etf.Series, 0, len(rows))
	for _, row := range rows {
		bar, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrSchemaMismatch, err)
		}
		series = append(series, bar)
	}
	return series, nil
}

func parseKlineRow(row sinaBar) (etf.Bar, error) {
	date, err := time.Parse("2006-01-02", row.Day)
	if err != nil {
		return etf.Bar{}, fmt.Errorf("kline row %q: bad date: %w", row.Day, err)
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", row.Open, nil},
		{"high", row.High, nil},
		{"low", row.Low, nil},
		{"close", row.Close, nil},
		{"volume", row.Volume, nil},
	}

	bar := etf.Bar{Date: date}
	fields[0].dst = &bar.Open
	fields[1].dst = &bar.High
	fields[2].dst = &bar.Low
	fields[3].dst = &bar.Close
	fields[4].dst = &bar.Volume

	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return etf.Bar{}, fmt.Errorf("kline row %s: bad %s %q: %w", row.Day, f.name, f.raw, err)
		}
		*f.dst = d
	}

	if err := bar.Validate(); err != nil {
		return etf.Bar{}, err
	}
	return bar, nil
}
