package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/provider"
)

// klineResponse is the push2his kline payload. Fields follow the
// fields2 request order: f51 date, f52 open, f53 close, f54 high,
// f55 low, f56 volume, f57 amount.
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchDaily fetches forward-adjusted daily bars for one fund. A zero
// since requests the full history.
func (c *Client) FetchDaily(ctx context.Context, symbol etf.Symbol, since time.Time) (etf.Series, error) {
	beg := "0"
	if !since.IsZero() {
		beg = since.Format("20060102")
	}

	params := url.Values{}
	params.Set("secid", symbol.EastmoneySecID())
	params.Set("klt", "101") // daily
	params.Set("fqt", "1")   // forward adjusted
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	params.Set("beg", beg)
	params.Set("end", "20500101")

	body, err := c.fetchBody(ctx, c.klineURL, params)
	if err != nil {
		return nil, err
	}

	series, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("parse kline response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"count":  len(series),
	}).Debug("Fetched eastmoney daily bars")
	return series, nil
}

// parseKlines decodes the kline payload into a sorted series. Every
// failure wraps provider.ErrSchemaMismatch: the vendor answered, the
// answer just does not hold bars.
func parseKlines(body []byte) (etf.Series, error) {
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", provider.ErrSchemaMismatch, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: response has no data block", provider.ErrSchemaMismatch)
	}

	series := make(etf.Series, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKlineRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrSchemaMismatch, err)
		}
		series = append(series, bar)
	}
	return series, nil
}

// parseKlineRow decodes one "date,open,close,high,low,volume,amount"
// row. Close comes before high and low on this vendor.
func parseKlineRow(line string) (etf.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return etf.Bar{}, fmt.Errorf("kline row %q: want at least 6 fields, got %d", line, len(parts))
	}

	date, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return etf.Bar{}, fmt.Errorf("kline row %q: bad date: %w", line, err)
	}

	fields := make([]decimal.Decimal, 5)
	for i := 0; i < 5; i++ {
		d, err := decimal.NewFromString(parts[i+1])
		if err != nil {
			return etf.Bar{}, fmt.Errorf("kline row %q: bad number %q: %w", line, parts[i+1], err)
		}
		fields[i] = d
	}

	bar := etf.Bar{
		Date:   date,
		Open:   fields[0],
		Close:  fields[1],
		High:   fields[2],
		Low:    fields[3],
		Volume: fields[4],
	}
	if err := bar.Validate(); err != nil {
		return etf.Bar{}, err
	}
	return bar, nil
}
