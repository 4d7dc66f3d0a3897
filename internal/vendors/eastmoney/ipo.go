package eastmoney

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/luofan/yupen/internal/etf"
)

// FetchNewShares scrapes the IPO subscription calendar and returns the
// issues open on the given Beijing calendar day.
func (c *Client) FetchNewShares(ctx context.Context, day time.Time) ([]etf.NewShare, error) {
	body, err := c.fetchBody(ctx, c.ipoURL, nil)
	if err != nil {
		return nil, err
	}

	shares, err := parseNewShares(body, day)
	if err != nil {
		return nil, fmt.Errorf("parse IPO table failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"day":   day.Format("2006-01-02"),
		"count": len(shares),
	}).Debug("Fetched IPO calendar")
	return shares, nil
}

// parseNewShares extracts today's subscribable issues from the IPO
// table. Columns: -, code, name, issue price, purchase limit,
// subscription date.
func parseNewShares(body []byte, day time.Time) ([]etf.NewShare, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("invalid HTML: %w", err)
	}

	table := doc.Find("table#tb")
	if table.Length() == 0 {
		return nil, fmt.Errorf("IPO table not found")
	}

	wantDate := day.Format("2006-01-02")
	var shares []etf.NewShare
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		issueDate := strings.TrimSpace(cells.Eq(5).Text())
		if issueDate != wantDate {
			return
		}

		shares = append(shares, etf.NewShare{
			Code:        strings.TrimSpace(cells.Eq(1).Text()),
			Name:        strings.TrimSpace(cells.Eq(2).Text()),
			IssuePrice:  strings.TrimSpace(cells.Eq(3).Text()),
			MaxPurchase: strings.TrimSpace(cells.Eq(4).Text()),
			IssueDate:   issueDate,
		})
	})
	return shares, nil
}
