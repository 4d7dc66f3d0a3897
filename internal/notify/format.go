package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/signal"
)

const timeLayout = "2006-01-02 15:04"

// SignalMessage renders one action signal as a push message.
func SignalMessage(sig signal.Signal, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "系统时间：%s\n", market.ToBeijing(now).Format(timeLayout))
	fmt.Fprintf(&b, "ETF代码：%s\n", sig.Symbol)
	fmt.Fprintf(&b, "名称：%s\n", sig.Name)
	fmt.Fprintf(&b, "操作建议：%s\n", sig.Action.Label())
	fmt.Fprintf(&b, "仓位比例：%.0f%%\n", sig.PositionPct)
	fmt.Fprintf(&b, "策略依据：%s", sig.Rationale)
	return b.String()
}

// NewSharesMessage renders the day's IPO subscription list.
func NewSharesMessage(shares []etf.NewShare, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "系统时间：%s\n", market.ToBeijing(now).Format(timeLayout))
	b.WriteString("【今日新股申购】\n")

	if len(shares) == 0 {
		b.WriteString("今日无可申购新股")
		return b.String()
	}
	for i, s := range shares {
		fmt.Fprintf(&b, "%d. %s（%s）\n", i+1, s.Name, s.Code)
		fmt.Fprintf(&b, "   发行价：%s 申购上限：%s 申购日期：%s\n", s.IssuePrice, s.MaxPurchase, s.IssueDate)
	}
	fmt.Fprintf(&b, "共%d只新股可申购", len(shares))
	return b.String()
}
