// Package sina is the first fallback vendor: daily klines via the
// CN_MarketData endpoint and the ETF directory via Market_Center.
package sina

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

// Client handles communication with Sina Finance.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	klineURL   string
	listURL    string
}

// NewClient creates a new Sina Finance client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		klineURL:   cfg.Sina.KlineURL,
		listURL:    cfg.Sina.ListURL,
	}
}

// Name identifies this vendor in logs and crawl status records.
func (c *Client) Name() string { return "sina" }

// fetchBody performs a GET and returns the raw body. Sina checks the
// referer on the quote service endpoints.
func (c *Client) fetchBody(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	fullURL := baseURL
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", baseURL, params.Encode())
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"Referer": "https://finance.sina.com.cn/",
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
