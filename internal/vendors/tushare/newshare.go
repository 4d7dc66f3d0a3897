package tushare

import (
	"context"
	"fmt"
	"time"

	"github.com/luofan/yupen/internal/etf"
)

const newShareFields = "ts_code,name,ipo_date,price,limit_amount"

// FetchNewShares fetches the IPOs subscribable on the given day via
// the new_share API.
func (c *Client) FetchNewShares(ctx context.Context, day time.Time) ([]etf.NewShare, error) {
	dateStr := day.Format("20060102")
	resp, err := c.call(ctx, "new_share", map[string]string{
		"start_date": dateStr,
		"end_date":   dateStr,
	}, newShareFields)
	if err != nil {
		return nil, err
	}

	shares, err := parseNewShares(resp)
	if err != nil {
		return nil, fmt.Errorf("parse new_share failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"day":   day.Format("2006-01-02"),
		"count": len(shares),
	}).Debug("Fetched tushare IPO calendar")
	return shares, nil
}

func parseNewShares(resp *apiResponse) ([]etf.NewShare, error) {
	idx := columnIndex(resp.Data.Fields)
	if _, ok := idx["ts_code"]; !ok {
		return nil, fmt.Errorf("missing column %q", "ts_code")
	}

	shares := make([]etf.NewShare, 0, len(resp.Data.Items))
	for _, row := range resp.Data.Items {
		issueDate := stringAt(row, idx, "ipo_date")
		if t, err := time.Parse("20060102", issueDate); err == nil {
			issueDate = t.Format("2006-01-02")
		}

		shares = append(shares, etf.NewShare{
			Code:        stringAt(row, idx, "ts_code"),
			Name:        stringAt(row, idx, "name"),
			IssuePrice:  stringAt(row, idx, "price"),
			MaxPurchase: stringAt(row, idx, "limit_amount"),
			IssueDate:   issueDate,
		})
	}
	return shares, nil
}
