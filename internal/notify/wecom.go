// Package notify pushes messages to a WeCom group webhook. An empty
// webhook URL turns every send into a logged no-op so the pipeline
// runs without messaging configured.
package notify

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

// Notifier sends messages through a WeCom group robot webhook.
type Notifier struct {
	httpClient *httputil.Client
	webhookURL string
	logger     *logger.Logger
}

// New creates a notifier from the configured webhook.
func New(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Notifier {
	return &Notifier{
		httpClient: httpClient,
		webhookURL: cfg.WecomWebhook,
		logger:     log,
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

// SendText pushes a plain text message.
func (n *Notifier) SendText(ctx context.Context, content string) error {
	return n.send(ctx, map[string]interface{}{
		"msgtype": "text",
		"text":    map[string]string{"content": content},
	})
}

// SendMarkdown pushes a markdown message.
func (n *Notifier) SendMarkdown(ctx context.Context, content string) error {
	return n.send(ctx, map[string]interface{}{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	})
}

// wecomResponse is the webhook acknowledgement. A non-zero errcode
// means WeCom rejected the message even though HTTP said 200.
type wecomResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (n *Notifier) send(ctx context.Context, payload map[string]interface{}) error {
	if !n.Enabled() {
		n.logger.Debug("WeCom webhook not configured, message dropped")
		return nil
	}

	resp, err := n.httpClient.PostJSON(ctx, n.webhookURL, payload)
	if err != nil {
		return fmt.Errorf("wecom push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wecom push: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wecom push: read response: %w", err)
	}
	var ack wecomResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("wecom push: decode response: %w", err)
	}
	if ack.ErrCode != 0 {
		return fmt.Errorf("wecom push rejected: %d %s", ack.ErrCode, ack.ErrMsg)
	}

	n.logger.Info("WeCom message sent")
	return nil
}
