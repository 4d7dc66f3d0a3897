package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/pkg/logger"
)

type recordingTasks struct {
	ran map[string]int
}

func newRecordingTasks() *recordingTasks { return &recordingTasks{ran: map[string]int{}} }

func (t *recordingTasks) CrawlDaily(context.Context) error   { t.ran["crawl"]++; return nil }
func (t *recordingTasks) GeneratePool(context.Context) error { t.ran["pool"]++; return nil }
func (t *recordingTasks) PushIPO(context.Context) error      { t.ran["ipo"]++; return nil }
func (t *recordingTasks) Cleanup(context.Context) error      { t.ran["cleanup"]++; return nil }

type frozenClock struct{ t time.Time }

func (c frozenClock) Now() time.Time { return c.t }

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, RegisterAll(s, newRecordingTasks(), nil, logger.NewNop()))

	names := s.Jobs()
	assert.ElementsMatch(t, []string{"crawl_daily", "generate_pool", "push_ipo", "cleanup"}, names)
}

func TestPipelineJob_TradingDayGuard(t *testing.T) {
	tasks := newRecordingTasks()
	saturday := frozenClock{time.Date(2025, 3, 8, 2, 0, 0, 0, time.UTC)}
	monday := frozenClock{time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)}

	guarded := &pipelineJob{
		name:        "crawl_daily",
		schedule:    scheduleCrawl,
		tradingOnly: true,
		run:         tasks.CrawlDaily,
		clock:       saturday,
		logger:      logger.NewNop(),
	}
	require.NoError(t, guarded.Run(context.Background()))
	assert.Zero(t, tasks.ran["crawl"], "weekend run skipped")

	guarded.clock = monday
	require.NoError(t, guarded.Run(context.Background()))
	assert.Equal(t, 1, tasks.ran["crawl"])
}

func TestPipelineJob_CleanupIgnoresCalendar(t *testing.T) {
	tasks := newRecordingTasks()
	saturday := frozenClock{time.Date(2025, 3, 8, 2, 0, 0, 0, time.UTC)}

	job := &pipelineJob{
		name:     "cleanup",
		schedule: scheduleCleanup,
		run:      tasks.Cleanup,
		clock:    saturday,
		logger:   logger.NewNop(),
	}
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, tasks.ran["cleanup"])
}
