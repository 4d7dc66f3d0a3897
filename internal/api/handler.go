package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/luofan/yupen/internal/crawl"
	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/pool"
	"github.com/luofan/yupen/pkg/logger"
)

// Jobs is what the cron trigger endpoints run. Satisfied by *app.App.
type Jobs interface {
	CrawlDaily(ctx context.Context) error
	GeneratePool(ctx context.Context) error
	PushIPO(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// PoolReader serves the latest pool snapshot. Satisfied by
// *pool.Snapshot.
type PoolReader interface {
	Latest() (*etf.Pool, error)
}

// StatusReader serves the crawl status file. Satisfied by
// *crawl.Tracker.
type StatusReader interface {
	Load() map[string]crawl.Record
	Pending() []string
}

// Handler holds the endpoint implementations.
type Handler struct {
	jobs   Jobs
	pools  PoolReader
	status StatusReader
	secret string
	logger *logger.Logger
}

// NewHandler wires the endpoints.
func NewHandler(jobs Jobs, pools PoolReader, status StatusReader, secret string, log *logger.Logger) *Handler {
	return &Handler{
		jobs:   jobs,
		pools:  pools,
		status: status,
		secret: secret,
		logger: log,
	}
}

// cronSecretHeader carries the shared secret on trigger requests.
const cronSecretHeader = "X-Cron-Secret"

// runCron guards a trigger with the shared secret and runs the job
// inline, so the external scheduler sees the real outcome.
func (h *Handler) runCron(name string, run func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.secret == "" || r.Header.Get(cronSecretHeader) != h.secret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
			return
		}

		h.logger.WithField("job", name).Info("Cron trigger received")
		if err := run(r.Context()); err != nil {
			h.logger.WithError(err).WithField("job", name).Error("Cron job failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "job": name})
	}
}

// GetLatestPool returns the newest pool snapshot.
func (h *Handler) GetLatestPool(w http.ResponseWriter, r *http.Request) {
	p, err := h.pools.Latest()
	if err != nil {
		if errors.Is(err, pool.ErrNoPool) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pool generated yet"})
			return
		}
		h.logger.WithError(err).Error("Pool snapshot read failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot read failed"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetCrawlStatus returns the per-symbol crawl records and the
// still-pending set.
func (h *Handler) GetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": h.status.Load(),
		"pending": h.status.Pending(),
	})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": market.ToBeijing(time.Now()).Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
