package etf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(d time.Time, close float64) Bar {
	c := decimal.NewFromFloat(close)
	return Bar{
		Date:   d,
		Open:   c,
		High:   c.Add(decimal.NewFromFloat(0.01)),
		Low:    c.Sub(decimal.NewFromFloat(0.01)),
		Close:  c,
		Volume: decimal.NewFromInt(1_000_000),
	}
}

func TestBarValidate(t *testing.T) {
	valid := bar(day(2025, 3, 10), 1.23)
	require.NoError(t, valid.Validate())

	noDate := valid
	noDate.Date = time.Time{}
	assert.Error(t, noDate.Validate())

	zeroClose := valid
	zeroClose.Close = decimal.Zero
	assert.Error(t, zeroClose.Validate())

	negativeVolume := valid
	negativeVolume.Volume = decimal.NewFromInt(-1)
	assert.Error(t, negativeVolume.Validate())

	zeroVolume := valid
	zeroVolume.Volume = decimal.Zero
	assert.NoError(t, zeroVolume.Validate(), "zero volume is a valid halt day")
}

func TestSeriesMerge_DedupKeepsNewest(t *testing.T) {
	existing := Series{
		bar(day(2025, 3, 10), 1.00),
		bar(day(2025, 3, 11), 1.10),
	}
	incoming := Series{
		bar(day(2025, 3, 11), 1.15), // revised close for the same day
		bar(day(2025, 3, 12), 1.20),
	}

	merged := existing.Merge(incoming)

	require.Len(t, merged, 3)
	assert.True(t, merged.IsSortedUnique())
	assert.Equal(t, "1.15", merged[1].Close.String(), "duplicate day must keep the newer row")
	assert.Equal(t, day(2025, 3, 12), merged.LastDate())
}

func TestSeriesMerge_Idempotent(t *testing.T) {
	existing := Series{bar(day(2025, 3, 10), 1.00)}
	rows := Series{
		bar(day(2025, 3, 11), 1.10),
		bar(day(2025, 3, 12), 1.20),
	}

	once := existing.Merge(rows)
	twice := once.Merge(rows)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.True(t, once[i].Close.Equal(twice[i].Close))
		assert.Equal(t, once[i].Day(), twice[i].Day())
	}
}

func TestSeriesMerge_UnorderedInput(t *testing.T) {
	merged := Series{}.Merge(Series{
		bar(day(2025, 3, 12), 1.20),
		bar(day(2025, 3, 10), 1.00),
		bar(day(2025, 3, 11), 1.10),
	})

	assert.True(t, merged.IsSortedUnique())
	assert.Equal(t, day(2025, 3, 10), merged[0].Day())
}

func TestSeriesSince(t *testing.T) {
	s := Series{
		bar(day(2025, 3, 10), 1.00),
		bar(day(2025, 3, 11), 1.10),
		bar(day(2025, 3, 12), 1.20),
	}

	tail := s.Since(day(2025, 3, 11))
	require.Len(t, tail, 2)
	assert.Equal(t, day(2025, 3, 11), tail[0].Day())

	assert.Len(t, s.Since(day(2025, 3, 13)), 0)
	assert.Len(t, s.Since(day(2020, 1, 1)), 3)
}

func TestBarDay_TruncatesTime(t *testing.T) {
	b := bar(time.Date(2025, 3, 10, 15, 4, 5, 0, time.FixedZone("CST", 8*3600)), 1.0)
	got := b.Day()
	assert.Equal(t, day(2025, 3, 10), got)
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindDaily.Valid())
	assert.True(t, KindIntraday.Valid())
	assert.False(t, Kind("weekly").Valid())
}

func TestScoreRecordRound1(t *testing.T) {
	r := ScoreRecord{
		Symbol:    "sh.510300",
		Liquidity: 55.5555,
		Risk:      80.04,
		Return:    33.35,
		Premium:   99.99,
		Sentiment: 60.0,
		Total:     64.444,
	}.Round1()

	assert.Equal(t, 55.6, r.Liquidity)
	assert.Equal(t, 80.0, r.Risk)
	assert.Equal(t, 100.0, r.Premium)
	assert.Equal(t, 64.4, r.Total)
}
