// Package tushare is the last-resort vendor. It needs an API token and
// is rate limited hard on free tiers, so the fallback chain only
// reaches it when the free endpoints are down.
package tushare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/httputil"
	"github.com/luofan/yupen/pkg/logger"
)

// Client handles communication with the Tushare Pro API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiURL     string
	token      string
}

// NewClient creates a new Tushare client. An empty token yields a
// client whose calls fail fast with ErrNoToken.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiURL:     cfg.Tushare.APIURL,
		token:      cfg.Tushare.Token,
	}
}

// Name identifies this vendor in logs and crawl status records.
func (c *Client) Name() string { return "tushare" }

// ErrNoToken reports a call attempted without a configured token.
var ErrNoToken = fmt.Errorf("tushare token not configured")

// apiRequest is the uniform Tushare Pro request envelope.
type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// apiResponse is the uniform response envelope: code 0 means success,
// data carries a column-name list plus row tuples.
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string          `json:"fields"`
		Items  [][]json.RawMessage `json:"items"`
	} `json:"data"`
}

// call posts one API request and decodes the envelope.
func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields string) (*apiResponse, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	req := apiRequest{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  fields,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.apiURL, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	apiResp, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", apiName, err)
	}
	return apiResp, nil
}

// parseEnvelope decodes and checks the response envelope.
func parseEnvelope(body []byte) (*apiResponse, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("API error %d: %s", resp.Code, resp.Msg)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("response has no data block")
	}
	return &resp, nil
}

// columnIndex maps column names to their item-tuple positions.
func columnIndex(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return idx
}

// stringAt extracts the string at column name, tolerating nulls.
func stringAt(row []json.RawMessage, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	var s string
	if err := json.Unmarshal(row[i], &s); err == nil {
		return s
	}
	// Numeric columns arrive unquoted.
	var n json.Number
	if err := json.Unmarshal(row[i], &n); err == nil {
		return n.String()
	}
	return ""
}
