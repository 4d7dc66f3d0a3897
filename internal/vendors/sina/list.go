package sina

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/luofan/yupen/internal/etf"
)

const listPageSize = 100

// listItem is one row of the Market_Center directory payload.
type listItem struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// FetchETFList pages through the exchange-traded-fund directory and
// returns every listed fund.
func (c *Client) FetchETFList(ctx context.Context) ([]etf.Listing, error) {
	var listings []etf.Listing
	for page := 1; ; page++ {
		items, err := c.fetchListPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			symbol, err := etf.ParseSymbol(item.Symbol)
			if err != nil {
				continue
			}
			listings = append(listings, etf.Listing{Symbol: symbol, Name: item.Name})
		}

		if len(items) < listPageSize {
			break
		}
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("ETF directory came back empty")
	}

	c.logger.WithField("count", len(listings)).Debug("Fetched sina ETF directory")
	return listings, nil
}

func (c *Client) fetchListPage(ctx context.Context, page int) ([]listItem, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("num", strconv.Itoa(listPageSize))
	params.Set("sort", "symbol")
	params.Set("asc", "1")
	params.Set("node", "etf_hq_fund")

	body, err := c.fetchBody(ctx, c.listURL, params)
	if err != nil {
		return nil, err
	}

	items, err := parseListPage(body)
	if err != nil {
		return nil, fmt.Errorf("parse directory page %d failed: %w", page, err)
	}
	return items, nil
}

// parseListPage decodes one directory page. The endpoint answers
// "null" past the last page.
func parseListPage(body []byte) ([]listItem, error) {
	if string(body) == "null" || len(body) == 0 {
		return nil, nil
	}
	var items []listItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return items, nil
}
