package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs background jobs on standard 5-field cron specs.
// Overlapping runs of the same job are skipped rather than queued, so a
// slow digest pass cannot pile up behind itself.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	logger := cronLogger{}
	return &CronScheduler{
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
		),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	if _, err := c.cron.AddFunc(spec, c.runOnce(job)); err != nil {
		return err
	}
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop blocks until in-flight jobs finish.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runOnce(job Job) func() {
	return func() {
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.Error("job failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
			return
		}
		logger.Info("job finished", zap.Duration("cost", time.Since(start)))
	}
}

// cronLogger routes the cron library's own messages into zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	logutil.GetLogger(context.Background()).Info(msg, zap.Any("detail", kv))
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	logutil.GetLogger(context.Background()).Error(msg, zap.Error(err), zap.Any("detail", kv))
}
