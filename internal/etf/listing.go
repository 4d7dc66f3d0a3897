package etf

import "github.com/shopspring/decimal"

// Listing is one tradable fund from a vendor's ETF directory.
type Listing struct {
	Symbol Symbol `json:"symbol"`
	Name   string `json:"name"`
}

// Quote is a realtime snapshot used for premium and scale math. NAV
// is the vendor-published IOPV; any field may be zero when the vendor
// omits it.
type Quote struct {
	Symbol Symbol
	Name   string
	Price  decimal.Decimal
	NAV    decimal.Decimal
	// MarketCap is the fund's market value in yuan.
	MarketCap decimal.Decimal
}

// PremiumPct returns the premium of price over NAV in percent, or
// (0, false) when NAV is missing.
func (q Quote) PremiumPct() (float64, bool) {
	if q.NAV.IsZero() {
		return 0, false
	}
	p := q.Price.Sub(q.NAV).Div(q.NAV).Mul(decimal.NewFromInt(100))
	return p.InexactFloat64(), true
}

var billionCNY = decimal.NewFromInt(1_000_000_000)

// ScaleBillions returns the fund's market value in billions of yuan,
// 0 when the vendor omitted it.
func (q Quote) ScaleBillions() float64 {
	if q.MarketCap.IsZero() {
		return 0
	}
	return q.MarketCap.Div(billionCNY).InexactFloat64()
}

// Holding is one constituent of a fund with its portfolio weight as a
// fraction (0.083 for 8.3%).
type Holding struct {
	StockCode string
	Name      string
	Weight    float64
}

// NewShare is one IPO open for subscription.
type NewShare struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	IssuePrice  string `json:"issue_price"`
	MaxPurchase string `json:"max_purchase"`
	IssueDate   string `json:"issue_date"`
}
