package tradelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/signal"
	"github.com/luofan/yupen/pkg/logger"
)

func testEntry(ts time.Time, symbol string, action signal.Action) Entry {
	return Entry{
		Time:        ts,
		Symbol:      symbol,
		Name:        "沪深300ETF",
		Action:      action,
		PositionPct: 50,
		Total:       86.5,
		Rationale:   "总分86.5不低于买入阈值85",
	}
}

func TestLogAppendAndReadAll(t *testing.T) {
	log, err := NewLog(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	// 2025-03-10 09:00 UTC is 17:00 Beijing the same day.
	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(testEntry(ts, "sh.510300", signal.ActionBuy)))
	require.NoError(t, log.Append(testEntry(ts.Add(time.Minute), "sz.159915", signal.ActionSell)))

	entries, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sh.510300", entries[0].Symbol)
	assert.Equal(t, signal.ActionBuy, entries[0].Action)
	assert.Equal(t, 50.0, entries[0].PositionPct)
	assert.Equal(t, 86.5, entries[0].Total)
	assert.Equal(t, "sz.159915", entries[1].Symbol)
}

func TestLogAppend_OneFilePerDay(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir, logger.NewNop())
	require.NoError(t, err)

	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	require.NoError(t, log.Append(testEntry(monday, "sh.510300", signal.ActionBuy)))
	require.NoError(t, log.Append(testEntry(tuesday, "sh.510300", signal.ActionHold)))

	_, err = os.Stat(filepath.Join(dir, "trade_log_20250310.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "trade_log_20250311.csv"))
	assert.NoError(t, err)

	entries, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, signal.ActionBuy, entries[0].Action, "older file read first")
	assert.Equal(t, signal.ActionHold, entries[1].Action)
}

func TestLogAppend_BeijingDayBoundary(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir, logger.NewNop())
	require.NoError(t, err)

	// 17:30 UTC on March 10 is already 01:30 March 11 in Beijing.
	ts := time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)
	require.NoError(t, log.Append(testEntry(ts, "sh.510300", signal.ActionBuy)))

	_, err = os.Stat(filepath.Join(dir, "trade_log_20250311.csv"))
	assert.NoError(t, err)
}

func TestLogReadAll_Empty(t *testing.T) {
	log, err := NewLog(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	entries, err := log.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
