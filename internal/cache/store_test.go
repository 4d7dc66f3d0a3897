package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	return store
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, close string) etf.Bar {
	c, _ := decimal.NewFromString(close)
	return etf.Bar{
		Date:   day(d),
		Open:   c,
		High:   c,
		Low:    c,
		Close:  c,
		Volume: decimal.NewFromInt(1000),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	now := day(12)

	saved, err := store.MergeAndSave("sh.510300", etf.KindDaily, now, etf.Series{
		bar(10, "4.012"),
		bar(11, "4.034"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	loaded, err := store.Load("sh.510300", etf.KindDaily, now, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "4.012", loaded[0].Close.String(), "prices must round-trip exactly")
	assert.Equal(t, day(11), loaded.LastDate())
}

func TestStoreLoad_MissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	series, err := store.Load("sh.510300", etf.KindDaily, day(10), 0)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestStoreMergeAndSave_DedupAcrossSaves(t *testing.T) {
	store := newTestStore(t)
	now := day(12)

	_, err := store.MergeAndSave("sh.510300", etf.KindDaily, now, etf.Series{
		bar(10, "4.00"),
		bar(11, "4.10"),
	})
	require.NoError(t, err)

	// Second save revises day 11 and appends day 12.
	merged, err := store.MergeAndSave("sh.510300", etf.KindDaily, now, etf.Series{
		bar(11, "4.15"),
		bar(12, "4.20"),
	})
	require.NoError(t, err)

	require.Len(t, merged, 3)
	assert.Equal(t, "4.15", merged[1].Close.String(), "revised row wins")
	assert.True(t, merged.IsSortedUnique())

	loaded, err := store.Load("sh.510300", etf.KindDaily, now, 0)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestStoreLoad_AgeWindow(t *testing.T) {
	store := newTestStore(t)
	now := day(20)

	_, err := store.MergeAndSave("sh.510300", etf.KindDaily, now, etf.Series{
		bar(10, "4.00"),
		bar(18, "4.10"),
		bar(19, "4.20"),
	})
	require.NoError(t, err)

	recent, err := store.Load("sh.510300", etf.KindDaily, now, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2, "rows older than the window are dropped")
	assert.Equal(t, day(18), recent[0].Day())
}

func TestStoreLoad_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	now := day(10)

	path := store.Path("sh.510300", etf.KindDaily, now)
	require.NoError(t, os.WriteFile(path, []byte("date,open\ngarbage"), 0o644))

	_, err := store.Load("sh.510300", etf.KindDaily, now, 0)
	assert.ErrorIs(t, err, ErrCacheCorrupt)
}

func TestStoreMergeAndSave_ReplacesCorruptFile(t *testing.T) {
	store := newTestStore(t)
	now := day(10)

	path := store.Path("sh.510300", etf.KindDaily, now)
	require.NoError(t, os.WriteFile(path, []byte("not,a,cache\n1,2,3"), 0o644))

	merged, err := store.MergeAndSave("sh.510300", etf.KindDaily, now, etf.Series{bar(10, "4.00")})
	require.NoError(t, err)
	assert.Len(t, merged, 1)

	loaded, err := store.Load("sh.510300", etf.KindDaily, now, 0)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestStorePath_IntradayIsDated(t *testing.T) {
	store := newTestStore(t)

	daily := store.Path("sh.510300", etf.KindDaily, day(10))
	intraday := store.Path("sh.510300", etf.KindIntraday, day(10))

	assert.Equal(t, "sh.510300_daily.csv", filepath.Base(daily))
	assert.Equal(t, "sh.510300_intraday_20250310.csv", filepath.Base(intraday))
}

func TestStoreWrite_NoTempFilesLeftBehind(t *testing.T) {
	store := newTestStore(t)

	_, err := store.MergeAndSave("sh.510300", etf.KindDaily, day(10), etf.Series{bar(10, "4.00")})
	require.NoError(t, err)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sh.510300_daily.csv", entries[0].Name())
}
