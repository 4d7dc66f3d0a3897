package tushare

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/provider"
)

const fundDailyFields = "ts_code,trade_date,open,high,low,close,vol,amount"

// FetchDaily fetches daily bars via the fund_daily API. Rows arrive
// newest first; the result is returned sorted ascending. Volume comes
// in hand lots and is scaled to shares.
func (c *Client) FetchDaily(ctx context.Context, symbol etf.Symbol, since time.Time) (etf.Series, error) {
	params := map[string]string{
		"ts_code": symbol.TushareCode(),
	}
	if !since.IsZero() {
		params["start_date"] = since.Format("20060102")
	}

	resp, err := c.call(ctx, "fund_daily", params, fundDailyFields)
	if err != nil {
		return nil, err
	}

	series, err := parseFundDaily(resp)
	if err != nil {
		return nil, fmt.Errorf("parse fund_daily failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"count":  len(series),
	}).Debug("Fetched tushare daily bars")
	return series, nil
}

var lotSize = decimal.NewFromInt(100)

// parseFundDaily validates the column set and decodes the rows.
// Failures wrap provider.ErrSchemaMismatch.
func parseFundDaily(resp *apiResponse) (etf.Series, error) {
	idx := columnIndex(resp.Data.Fields)
	for _, col := range []string{"trade_date", "open", "high", "low", "close", "vol"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", provider.ErrSchemaMismatch, col)
		}
	}

	series := make(etf.Series, 0, len(resp.Data.Items))
	for _, row := range resp.Data.Items {
		bar, err := parseFundDailyRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrSchemaMismatch, err)
		}
		series = append(series, bar)
	}

	// fund_daily answers newest first.
	return etf.Series{}.Merge(series), nil
}

func parseFundDailyRow(row []json.RawMessage, idx map[string]int) (etf.Bar, error) {
	dateStr := stringAt(row, idx, "trade_date")
	date, err := time.Parse("20060102", dateStr)
	if err != nil {
		return etf.Bar{}, fmt.Errorf("row %q: bad trade_date: %w", dateStr, err)
	}

	bar := etf.Bar{Date: date}
	for _, f := range []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
		{"vol", &bar.Volume},
	} {
		raw := stringAt(row, idx, f.name)
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return etf.Bar{}, fmt.Errorf("row %s: bad %s %q: %w", dateStr, f.name, raw, err)
		}
		*f.dst = d
	}
	bar.Volume = bar.Volume.Mul(lotSize)

	if err := bar.Validate(); err != nil {
		return etf.Bar{}, err
	}
	return bar, nil
}
