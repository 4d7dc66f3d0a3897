package scheduler

import (
	"context"

	"github.com/luofan/yupen/internal/market"
	"github.com/luofan/yupen/pkg/logger"
)

// Tasks is the set of pipeline entry points the schedule drives.
// Satisfied by *app.App.
type Tasks interface {
	CrawlDaily(ctx context.Context) error
	GeneratePool(ctx context.Context) error
	PushIPO(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Default schedules, Beijing time. The crawl starts after the 15:00
// close with slack for vendors to finalize the day's bar; the pool run
// starts once the crawl has had time to finish.
const (
	scheduleCrawl   = "0 0 17 * * MON-FRI"
	schedulePool    = "0 40 17 * * MON-FRI"
	scheduleIPO     = "0 0 9 * * MON-FRI"
	scheduleCleanup = "0 0 3 * * SUN"
)

// pipelineJob adapts one Tasks method to the Job interface, with an
// optional trading-day guard.
type pipelineJob struct {
	name        string
	schedule    string
	tradingOnly bool
	run         func(ctx context.Context) error
	clock       market.Clock
	logger      *logger.Logger
}

func (j *pipelineJob) Name() string     { return j.name }
func (j *pipelineJob) Schedule() string { return j.schedule }

func (j *pipelineJob) Run(ctx context.Context) error {
	if j.tradingOnly && !market.IsTradingDay(j.clock.Now()) {
		j.logger.WithField("job", j.name).Info("Not a trading day, job skipped")
		return nil
	}
	return j.run(ctx)
}

// RegisterAll adds the full daily pipeline to the scheduler.
func RegisterAll(s *Scheduler, tasks Tasks, clock market.Clock, log *logger.Logger) error {
	if clock == nil {
		clock = market.SystemClock{}
	}

	jobs := []*pipelineJob{
		{name: "crawl_daily", schedule: scheduleCrawl, tradingOnly: true, run: tasks.CrawlDaily, clock: clock, logger: log},
		{name: "generate_pool", schedule: schedulePool, tradingOnly: true, run: tasks.GeneratePool, clock: clock, logger: log},
		{name: "push_ipo", schedule: scheduleIPO, tradingOnly: true, run: tasks.PushIPO, clock: clock, logger: log},
		{name: "cleanup", schedule: scheduleCleanup, run: tasks.Cleanup, clock: clock, logger: log},
	}
	for _, job := range jobs {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}
	return nil
}
