package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/luofan/yupen/internal/etf"
)

const holdingsURL = "https://fundf10.eastmoney.com/FundArchivesDatas.aspx"

// FetchHoldings fetches the latest published constituent table for a
// fund. The endpoint returns a JS assignment wrapping an HTML table;
// the table rows carry stock code, name and portfolio weight.
func (c *Client) FetchHoldings(ctx context.Context, symbol etf.Symbol) ([]etf.Holding, error) {
	params := url.Values{}
	params.Set("type", "jjcc")
	params.Set("code", symbol.Code())
	params.Set("topline", "20")

	body, err := c.fetchBody(ctx, holdingsURL, params)
	if err != nil {
		return nil, err
	}

	holdings, err := parseHoldings(body)
	if err != nil {
		return nil, fmt.Errorf("parse holdings failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"count":  len(holdings),
	}).Debug("Fetched fund holdings")
	return holdings, nil
}

// parseHoldings extracts holdings rows from the wrapped HTML payload.
// Expected columns: rank, stock code, stock name, ..., weight%.
func parseHoldings(body []byte) ([]etf.Holding, error) {
	html := unwrapJS(string(body))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("invalid HTML: %w", err)
	}

	var holdings []etf.Holding
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		code := strings.TrimSpace(cells.Eq(1).Text())
		name := strings.TrimSpace(cells.Eq(2).Text())
		if code == "" {
			return
		}

		// The weight column position varies with the report layout;
		// take the first cell ending in "%".
		var weight float64
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < 3 || weight != 0 {
				return
			}
			text := strings.TrimSpace(cell.Text())
			if !strings.HasSuffix(text, "%") {
				return
			}
			if v, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64); err == nil {
				weight = v / 100
			}
		})
		if weight == 0 {
			return
		}

		holdings = append(holdings, etf.Holding{
			StockCode: code,
			Name:      name,
			Weight:    weight,
		})
	})

	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings rows found")
	}
	return holdings, nil
}

// unwrapJS strips the `var apidata={ content:"..." , ...}` wrapper the
// archive endpoint emits around the HTML fragment.
func unwrapJS(body string) string {
	start := strings.Index(body, `content:"`)
	if start < 0 {
		return body
	}
	start += len(`content:"`)
	end := strings.LastIndex(body, `"`)
	if end <= start {
		return body
	}
	return strings.ReplaceAll(body[start:end], `\"`, `"`)
}
