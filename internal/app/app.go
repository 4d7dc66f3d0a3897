// Package app wires every component into one object. The CLI, the API
// server and the scheduler all drive the same App, so a cron trigger,
// a scheduled run and a manual command share identical behaviour.
package app

import (
	"context"
	"fmt"

	"github.com/luofan/yupen/internal/cache"
	"github.com/luofan/yupen/internal/crawl"
	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/ipo"
	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/internal/notify"
	"github.com/luofan/yupen/internal/pool"
	"github.com/luofan/yupen/internal/provider"
	"github.com/luofan/yupen/internal/scoring"
	"github.com/luofan/yupen/internal/signal"
	"github.com/luofan/yupen/internal/storage"
	"github.com/luofan/yupen/internal/strategy"
	"github.com/luofan/yupen/internal/tradelog"
	"github.com/luofan/yupen/internal/vendors/eastmoney"
	"github.com/luofan/yupen/internal/vendors/sina"
	"github.com/luofan/yupen/internal/vendors/tushare"
	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/httputil"
	"github.com/luofan/yupen/pkg/logger"
	"github.com/luofan/yupen/pkg/redis"
)

// App is the assembled pipeline.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Strategy *strategy.Config

	Store     *cache.Store
	Tracker   *crawl.Tracker
	Batch     *crawl.Batch
	Acquirer  *crawl.Acquirer
	Generator *pool.Generator
	Snapshot  *pool.Snapshot

	sina      *sina.Client
	engine    *scoring.Engine
	aux       *pool.VendorAux
	signals   *signal.Calculator
	tradeLog  *tradelog.Log
	notifier  *notify.Notifier
	ipo       *ipo.Service
	cleaner   *storage.Cleaner
	redis     *redis.Client
	jsonCache *redis.Cache
	clock     market.Clock
}

// New builds the whole object graph from config.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	strat, err := strategy.Load(cfg.StrategyFile)
	if err != nil {
		return nil, err
	}
	if hash, err := strategy.Hash(strat); err == nil {
		log.WithFields(map[string]interface{}{
			"strategy_id": strat.Meta.StrategyID,
			"hash":        hash[:12],
		}).Info("Strategy loaded")
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis init: %w", err)
	}

	httpClient := httputil.New(cfg, log)

	// Each vendor gets its own client under the shared sliding-window
	// limiter, so parallel processes on one host respect the per-vendor
	// quotas. With Redis disabled the limiter always allows.
	limiter := redis.NewRateLimiter(redisClient, "yupen")
	emClient := eastmoney.NewClient(cfg, httputil.New(cfg, log).WithRateLimiter(limiter, redis.EastmoneyRateLimit), log)
	sinaClient := sina.NewClient(cfg, httputil.New(cfg, log).WithRateLimiter(limiter, redis.SinaRateLimit), log)
	tsClient := tushare.NewClient(cfg, httputil.New(cfg, log).WithRateLimiter(limiter, redis.TushareRateLimit), log)

	chain := provider.NewChain(log, emClient, sinaClient, tsClient)

	store, err := cache.NewStore(cfg.Data.RawDir, log)
	if err != nil {
		return nil, err
	}
	tracker := crawl.NewTracker(cfg.Data.RawDir, log)
	acquirer := crawl.NewAcquirer(store, chain, log, cfg.Crawl.CacheMaxAgeDays)
	batch := crawl.NewBatch(acquirer, tracker, cfg.Crawl.RequestsPerSec, cfg.Crawl.SymbolDeadline, log)

	engine := scoring.NewEngine(strat, log)
	selector := pool.NewSelector(strat)
	snapshot, err := pool.NewSnapshot(cfg.Data.PoolDir, log)
	if err != nil {
		return nil, err
	}
	jsonCache := redis.NewCache(redisClient, "yupen")
	aux := pool.NewVendorAux(emClient, jsonCache, log)
	generator := pool.NewGenerator(store, engine, selector, snapshot, aux, strat, log, cfg.Crawl.CacheMaxAgeDays)

	notifier := notify.New(cfg, httpClient, log)
	tradeLog, err := tradelog.NewLog(cfg.Data.TradeLogDir, log)
	if err != nil {
		return nil, err
	}
	ipoService, err := ipo.NewService(tsClient, emClient, notifier, cfg.Data.IPODir, log)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    log,
		Strategy:  strat,
		Store:     store,
		Tracker:   tracker,
		Batch:     batch,
		Acquirer:  acquirer,
		Generator: generator,
		Snapshot:  snapshot,
		sina:      sinaClient,
		engine:    engine,
		aux:       aux,
		signals:   signal.NewCalculator(strat),
		tradeLog:  tradeLog,
		notifier:  notifier,
		ipo:       ipoService,
		cleaner:   storage.NewCleaner(cfg, log),
		redis:     redisClient,
		jsonCache: jsonCache,
		clock:     market.SystemClock{},
	}, nil
}

// Close releases shared resources.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// Universe fetches the full ETF directory, cached briefly so a crawl
// immediately followed by a pool run reuses the same list.
func (a *App) Universe(ctx context.Context) ([]etf.Listing, error) {
	var listings []etf.Listing
	err := a.jsonCache.GetOrSet(ctx, "etf:list", &listings, redis.TTLSpotList, func() (interface{}, error) {
		return a.sina.FetchETFList(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch ETF universe: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("ETF universe came back empty")
	}
	return listings, nil
}

// CrawlDaily runs the full acquisition batch over the universe.
func (a *App) CrawlDaily(ctx context.Context) error {
	listings, err := a.Universe(ctx)
	if err != nil {
		return err
	}

	symbols := make([]etf.Symbol, len(listings))
	for i, l := range listings {
		symbols[i] = l.Symbol
	}

	summary, err := a.Batch.Run(ctx, symbols, a.clock.Now())
	if err != nil {
		return err
	}
	if !summary.Complete() {
		return fmt.Errorf("crawl incomplete: %d of %d symbols failed", summary.Failed, summary.Total)
	}
	return nil
}

// ResumeCrawl refetches only the symbols the status file still lists
// as unfinished.
func (a *App) ResumeCrawl(ctx context.Context) error {
	listings, err := a.Universe(ctx)
	if err != nil {
		return err
	}

	symbols := make([]etf.Symbol, len(listings))
	for i, l := range listings {
		symbols[i] = l.Symbol
	}

	summary, err := a.Batch.Resume(ctx, symbols, a.clock.Now())
	if err != nil {
		return err
	}
	if !summary.Complete() {
		return fmt.Errorf("resume incomplete: %d symbols still failing", summary.Failed)
	}
	return nil
}

// GeneratePool scores the universe, persists the snapshot and pushes
// the summary plus per-entry action signals. Push failures are logged
// but do not fail the run; the snapshot on disk is the authority.
func (a *App) GeneratePool(ctx context.Context) error {
	listings, err := a.Universe(ctx)
	if err != nil {
		return err
	}

	now := a.clock.Now()
	p, summary, err := a.Generator.Generate(ctx, listings, now)
	if err != nil {
		return err
	}

	if err := a.notifier.SendMarkdown(ctx, summary); err != nil {
		a.Logger.WithError(err).Warn("Pool summary push failed")
	}

	for _, sig := range a.signals.DecideAll(p) {
		if err := a.notifier.SendText(ctx, notify.SignalMessage(sig, now)); err != nil {
			a.Logger.WithError(err).WithField("symbol", sig.Symbol).Warn("Signal push failed")
		}
		if err := a.tradeLog.Append(tradelog.Entry{
			Time:        now,
			Symbol:      sig.Symbol,
			Name:        sig.Name,
			Action:      sig.Action,
			PositionPct: sig.PositionPct,
			Total:       sig.Total,
			Rationale:   sig.Rationale,
		}); err != nil {
			a.Logger.WithError(err).WithField("symbol", sig.Symbol).Warn("Trade log append failed")
		}
	}
	return nil
}

// ScoreSymbol acquires history for one symbol (cache-first) and scores
// it. Used by the score command for ad-hoc inspection.
func (a *App) ScoreSymbol(ctx context.Context, symbol etf.Symbol, name string) (etf.ScoreRecord, error) {
	series, err := a.Acquirer.Get(ctx, symbol, etf.KindDaily, a.clock.Now())
	if err != nil {
		return etf.ScoreRecord{}, err
	}
	if err := a.aux.Refresh(ctx); err != nil {
		a.Logger.WithError(err).Warn("Aux refresh failed, scoring with neutral premium")
	}
	return a.engine.Score(symbol, name, series, a.aux.Aux(ctx, symbol)), nil
}

// PushIPO fetches and pushes today's IPO subscription digest.
func (a *App) PushIPO(ctx context.Context) error {
	return a.ipo.PushToday(ctx, a.clock.Now())
}

// Cleanup sweeps aged artifacts out of the data directories.
func (a *App) Cleanup(ctx context.Context) error {
	_, err := a.cleaner.Run(a.clock.Now())
	return err
}
