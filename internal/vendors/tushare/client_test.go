package tushare

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/provider"
)

func TestParseEnvelope(t *testing.T) {
	resp, err := parseEnvelope([]byte(`{"code":0,"msg":"","data":{"fields":["a"],"items":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, resp.Data.Fields)

	_, err = parseEnvelope([]byte(`{"code":40203,"msg":"token invalid","data":null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token invalid")

	_, err = parseEnvelope([]byte(`{"code":0,"msg":"","data":null}`))
	assert.Error(t, err)

	_, err = parseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestFetchDaily_NoToken(t *testing.T) {
	c := &Client{}
	_, err := c.FetchDaily(context.Background(), "sh.510300", time.Time{})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestParseFundDaily(t *testing.T) {
	resp, err := parseEnvelope([]byte(`{
		"code": 0,
		"msg": "",
		"data": {
			"fields": ["ts_code","trade_date","open","high","low","close","vol","amount"],
			"items": [
				["510300.SH","20250311",4.035,4.040,4.010,4.020,98765.43,39700.0],
				["510300.SH","20250310",4.012,4.045,4.001,4.034,123456.78,49801.2]
			]
		}
	}`))
	require.NoError(t, err)

	series, err := parseFundDaily(resp)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.True(t, series.IsSortedUnique(), "newest-first payload must come back ascending")
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), series[0].Day())
	assert.Equal(t, "4.034", series[0].Close.String())
	assert.Equal(t, "12345678", series[0].Volume.String(), "hand lots scale to shares")
}

func TestParseFundDaily_MissingColumn(t *testing.T) {
	resp, err := parseEnvelope([]byte(`{"code":0,"msg":"","data":{"fields":["ts_code","trade_date"],"items":[]}}`))
	require.NoError(t, err)

	_, err = parseFundDaily(resp)
	assert.ErrorIs(t, err, provider.ErrSchemaMismatch)
}

func TestParseNewShares(t *testing.T) {
	resp, err := parseEnvelope([]byte(`{
		"code": 0,
		"msg": "",
		"data": {
			"fields": ["ts_code","name","ipo_date","price","limit_amount"],
			"items": [
				["301999.SZ","新材科技","20250310",12.5,1.2]
			]
		}
	}`))
	require.NoError(t, err)

	shares, err := parseNewShares(resp)
	require.NoError(t, err)
	require.Len(t, shares, 1)

	assert.Equal(t, "301999.SZ", shares[0].Code)
	assert.Equal(t, "新材科技", shares[0].Name)
	assert.Equal(t, "12.5", shares[0].IssuePrice)
	assert.Equal(t, "2025-03-10", shares[0].IssueDate)
}
