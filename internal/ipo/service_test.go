package ipo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// tradingDay is a Monday, 09:00 Beijing.
var tradingDay = time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)

type stubSource struct {
	shares []etf.NewShare
	err    error
	calls  int
}

func (s *stubSource) FetchNewShares(context.Context, time.Time) ([]etf.NewShare, error) {
	s.calls++
	return s.shares, s.err
}

type stubPusher struct {
	messages []string
	err      error
}

func (p *stubPusher) SendText(_ context.Context, content string) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, content)
	return nil
}

func newTestService(t *testing.T, primary, fallback *stubSource, pusher *stubPusher) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewService(primary, fallback, pusher, dir, logger.NewNop())
	require.NoError(t, err)
	return svc, dir
}

func TestFetchToday_PrimaryWins(t *testing.T) {
	primary := &stubSource{shares: []etf.NewShare{{Code: "301999", Name: "某某科技"}}}
	fallback := &stubSource{}
	svc, _ := newTestService(t, primary, fallback, &stubPusher{})

	shares, err := svc.FetchToday(context.Background(), tradingDay)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
	assert.Zero(t, fallback.calls, "fallback must not run when primary succeeds")
}

func TestFetchToday_FallsBack(t *testing.T) {
	primary := &stubSource{err: errors.New("no token")}
	fallback := &stubSource{shares: []etf.NewShare{{Code: "301999"}}}
	svc, _ := newTestService(t, primary, fallback, &stubPusher{})

	shares, err := svc.FetchToday(context.Background(), tradingDay)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestFetchToday_AllFail(t *testing.T) {
	svc, _ := newTestService(t,
		&stubSource{err: errors.New("down")},
		&stubSource{err: errors.New("also down")},
		&stubPusher{})

	_, err := svc.FetchToday(context.Background(), tradingDay)
	assert.Error(t, err)
}

func TestPushToday(t *testing.T) {
	pusher := &stubPusher{}
	primary := &stubSource{shares: []etf.NewShare{
		{Code: "301999", Name: "某某科技", IssuePrice: "12.30", MaxPurchase: "7500", IssueDate: "2025-03-10"},
	}}
	svc, dir := newTestService(t, primary, &stubSource{}, pusher)

	require.NoError(t, svc.PushToday(context.Background(), tradingDay))
	require.Len(t, pusher.messages, 1)
	assert.Contains(t, pusher.messages[0], "某某科技")

	assert.True(t, svc.Pushed(tradingDay))
	_, err := os.Stat(filepath.Join(dir, "new_stock_20250310.csv"))
	assert.NoError(t, err, "digest file written alongside the push")

	// Second call the same day is a no-op.
	require.NoError(t, svc.PushToday(context.Background(), tradingDay))
	assert.Len(t, pusher.messages, 1)
	assert.Equal(t, 1, primary.calls)
}

func TestPushToday_SkipsWeekend(t *testing.T) {
	pusher := &stubPusher{}
	primary := &stubSource{}
	svc, _ := newTestService(t, primary, &stubSource{}, pusher)

	saturday := time.Date(2025, 3, 8, 1, 0, 0, 0, time.UTC)
	require.NoError(t, svc.PushToday(context.Background(), saturday))
	assert.Zero(t, primary.calls)
	assert.Empty(t, pusher.messages)
}

func TestPushToday_FetchFailureSchedulesRetry(t *testing.T) {
	primary := &stubSource{err: errors.New("down")}
	fallback := &stubSource{err: errors.New("down too")}
	svc, dir := newTestService(t, primary, fallback, &stubPusher{})

	require.Error(t, svc.PushToday(context.Background(), tradingDay))
	_, err := os.Stat(filepath.Join(dir, "retry.flag"))
	require.NoError(t, err)

	// Within the retry window nothing is attempted.
	primary.calls = 0
	require.NoError(t, svc.PushToday(context.Background(), tradingDay.Add(5*time.Minute)))
	assert.Zero(t, primary.calls)

	// After the window the push goes through and clears the flag.
	primary.err = nil
	primary.shares = []etf.NewShare{{Code: "301999", Name: "某某科技"}}
	require.NoError(t, svc.PushToday(context.Background(), tradingDay.Add(31*time.Minute)))
	_, err = os.Stat(filepath.Join(dir, "retry.flag"))
	assert.True(t, os.IsNotExist(err))
}

func TestPushToday_PushFailureSchedulesRetry(t *testing.T) {
	primary := &stubSource{shares: []etf.NewShare{{Code: "301999"}}}
	pusher := &stubPusher{err: errors.New("webhook down")}
	svc, dir := newTestService(t, primary, &stubSource{}, pusher)

	require.Error(t, svc.PushToday(context.Background(), tradingDay))
	assert.False(t, svc.Pushed(tradingDay))
	_, err := os.Stat(filepath.Join(dir, "retry.flag"))
	assert.NoError(t, err)
}

func TestPushToday_EmptyListStillPushes(t *testing.T) {
	pusher := &stubPusher{}
	svc, _ := newTestService(t, &stubSource{}, &stubSource{}, pusher)

	require.NoError(t, svc.PushToday(context.Background(), tradingDay))
	require.Len(t, pusher.messages, 1)
	assert.Contains(t, pusher.messages[0], "今日无可申购新股")
	assert.True(t, svc.Pushed(tradingDay))
}
