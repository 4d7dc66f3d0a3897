// Package ipo fetches the day's IPO subscription list and pushes it
// once per trading day. Tushare is the primary source; the Eastmoney
// subscription table is the fallback. Flag files under the IPO data
// directory make the daily push idempotent and retryable.
package ipo

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/notify"
	"github.com/luofan/yupen/pkg/logger"
)

const (
	retryFlagName = "retry.flag"
	retryDelay    = 30 * time.Minute
	flagLayout    = "2006-01-02 15:04"
)

var digestHeader = []string{"code", "name", "issue_price", "max_purchase", "issue_date"}

// Source fetches the IPO subscriptions open on a given day.
type Source interface {
	FetchNewShares(ctx context.Context, day time.Time) ([]etf.NewShare, error)
}

// Pusher sends the formatted digest. Satisfied by *notify.Notifier.
type Pusher interface {
	SendText(ctx context.Context, content string) error
}

// Service owns the fetch-and-push flow plus its flag files.
type Service struct {
	primary  Source
	fallback Source
	pusher   Pusher
	dir      string
	logger   *logger.Logger
}

// NewService wires the vendor ladder for IPO data. In production the
// sources are the Tushare and Eastmoney clients.
func NewService(primary, fallback Source, pusher Pusher, dir string, log *logger.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ipo dir: %w", err)
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		pusher:   pusher,
		dir:      dir,
		logger:   log,
	}, nil
}

// FetchToday returns today's subscribable new shares, falling back to
// the secondary source when the primary fails or has no token.
func (s *Service) FetchToday(ctx context.Context, now time.Time) ([]etf.NewShare, error) {
	shares, err := s.primary.FetchNewShares(ctx, now)
	if err == nil {
		return shares, nil
	}
	s.logger.WithError(err).Warn("Primary IPO source failed, trying fallback")

	shares, fbErr := s.fallback.FetchNewShares(ctx, now)
	if fbErr != nil {
		return nil, fmt.Errorf("all IPO sources failed: %w", fbErr)
	}
	return shares, nil
}

// PushToday fetches and pushes the day's digest once. Repeat calls on
// the same Beijing day are no-ops; a failed push schedules a retry
// window instead of hammering the webhook.
func (s *Service) PushToday(ctx context.Context, now time.Time) error {
	if !market.IsTradingDay(now) {
		s.logger.Info("Not a trading day, skipping IPO push")
		return nil
	}
	if s.Pushed(now) {
		s.logger.Info("IPO digest already pushed today")
		return nil
	}
	if retryAt, ok := s.retryAfter(); ok && now.Before(retryAt) {
		s.logger.WithField("retry_at", retryAt.Format(flagLayout)).Info("IPO push in retry window, skipping")
		return nil
	}

	shares, err := s.FetchToday(ctx, now)
	if err != nil {
		s.scheduleRetry(now)
		return err
	}
	if err := s.writeDigest(shares, now); err != nil {
		s.logger.WithError(err).Warn("IPO digest file not written")
	}

	if err := s.pusher.SendText(ctx, notify.NewSharesMessage(shares, now)); err != nil {
		s.scheduleRetry(now)
		return fmt.Errorf("push IPO digest: %w", err)
	}

	s.clearRetry()
	if err := s.markPushed(now); err != nil {
		return err
	}
	s.logger.WithField("count", len(shares)).Info("IPO digest pushed")
	return nil
}

// Pushed reports whether the digest already went out on now's Beijing
// day. The flag is dated, so stale flags from earlier days never block
// a new push.
func (s *Service) Pushed(now time.Time) bool {
	_, err := os.Stat(s.pushedFlagPath(now))
	return err == nil
}

func (s *Service) pushedFlagPath(now time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("pushed_%s.flag", market.ToBeijing(now).Format("20060102")))
}

func (s *Service) markPushed(now time.Time) error {
	content := market.ToBeijing(now).Format(flagLayout)
	if err := os.WriteFile(s.pushedFlagPath(now), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write pushed flag: %w", err)
	}
	return nil
}

// retryAfter returns the earliest next attempt time, if a retry is
// scheduled.
func (s *Service) retryAfter() (time.Time, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, retryFlagName))
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(flagLayout, string(data), market.TZ())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Service) scheduleRetry(now time.Time) {
	content := market.ToBeijing(now.Add(retryDelay)).Format(flagLayout)
	if err := os.WriteFile(filepath.Join(s.dir, retryFlagName), []byte(content), 0o644); err != nil {
		s.logger.WithError(err).Warn("Retry flag not written")
	}
}

func (s *Service) clearRetry() {
	_ = os.Remove(filepath.Join(s.dir, retryFlagName))
}

// writeDigest stores the fetched list as a dated CSV so the day's data
// survives after the push.
func (s *Service) writeDigest(shares []etf.NewShare, now time.Time) error {
	name := fmt.Sprintf("new_stock_%s.csv", market.ToBeijing(now).Format("20060102"))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create ipo digest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(digestHeader); err != nil {
		return err
	}
	for _, share := range shares {
		if err := w.Write([]string{share.Code, share.Name, share.IssuePrice, share.MaxPurchase, share.IssueDate}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
