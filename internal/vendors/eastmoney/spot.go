package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/luofan/yupen/internal/etf"
)

// spotResponse is the push2 clist payload. f12 code, f13 market,
// f14 name, f2 latest price, f18 IOPV, f21 circulating market value
// in yuan; prices come scaled by 1000 (ETF quotes use three
// decimals), the market value does not.
type spotResponse struct {
	Data *struct {
		Total int        `json:"total"`
		Diff  []spotItem `json:"diff"`
	} `json:"data"`
}

type spotItem struct {
	Code      string      `json:"f12"`
	Market    int         `json:"f13"`
	Name      string      `json:"f14"`
	Price     quoteNumber `json:"f2"`
	NAV       quoteNumber `json:"f18"`
	MarketCap quoteNumber `json:"f21"`
}

// quoteNumber tolerates the vendor's "-" placeholder for suspended
// instruments by decoding it as zero.
type quoteNumber struct {
	decimal.Decimal
}

func (q *quoteNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "-" || s == "" || s == "null" {
		q.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		q.Decimal = decimal.Zero
		return nil
	}
	q.Decimal = d
	return nil
}

var priceScale = decimal.NewFromInt(1000)

// FetchSpot fetches the full exchange-traded-fund directory with
// realtime quotes. It is both the universe discovery source and the
// premium input.
func (c *Client) FetchSpot(ctx context.Context) ([]etf.Quote, error) {
	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", "10000")
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "1")
	params.Set("fid", "f12")
	params.Set("fs", "b:MK0021,b:MK0022,b:MK0023,b:MK0024")
	params.Set("fields", "f2,f12,f13,f14,f18,f21")

	body, err := c.fetchBody(ctx, c.spotURL, params)
	if err != nil {
		return nil, err
	}

	quotes, err := parseSpot(body)
	if err != nil {
		return nil, fmt.Errorf("parse spot response failed: %w", err)
	}

	c.logger.WithField("count", len(quotes)).Debug("Fetched eastmoney ETF directory")
	return quotes, nil
}

// parseSpot decodes the directory payload. Rows with an unparseable
// code are dropped; rows with missing quote fields keep zero values.
func parseSpot(body []byte) ([]etf.Quote, error) {
	var resp spotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("response has no data block")
	}

	quotes := make([]etf.Quote, 0, len(resp.Data.Diff))
	for _, item := range resp.Data.Diff {
		exchange := "sz"
		if item.Market == 1 {
			exchange = "sh"
		}
		symbol, err := etf.ParseSymbol(exchange + item.Code)
		if err != nil {
			continue
		}

		quotes = append(quotes, etf.Quote{
			Symbol:    symbol,
			Name:      item.Name,
			Price:     item.Price.Div(priceScale),
			NAV:       item.NAV.Div(priceScale),
			MarketCap: item.MarketCap.Decimal,
		})
	}
	return quotes, nil
}
