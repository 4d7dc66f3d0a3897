// Package eastmoney is the primary market-data vendor: daily klines,
// the ETF spot directory with IOPV quotes, fund holdings and the IPO
// subscription calendar.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/httputil"
	"github.com/luofan/yupen/pkg/logger"
)

// Client handles communication with the Eastmoney push2 endpoints.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	klineURL   string
	spotURL    string
	ipoURL     string
}

// NewClient creates a new Eastmoney client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		klineURL:   cfg.Eastmoney.KlineURL,
		spotURL:    cfg.Eastmoney.SpotURL,
		ipoURL:     cfg.Eastmoney.IPOURL,
	}
}

// Name identifies this vendor in logs and crawl status records.
func (c *Client) Name() string { return "eastmoney" }

// fetchBody performs a GET and returns the raw body.
func (c *Client) fetchBody(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	fullURL := baseURL
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", baseURL, params.Encode())
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"Referer": "https://quote.eastmoney.com/",
	})
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
	return body, nil
}
