package calendar

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the part of Aggregator the scheduler drives.
type Refresher interface {
	GetEvents(ctx context.Context, forceRefresh bool) (*EventsResponse, error)
}

// Scheduler force-refreshes the calendar on a cron schedule so requests
// usually find a warm cache.
type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	logger  *zap.Logger
	timeout time.Duration
	baseCtx context.Context
}

// NewScheduler registers a refresh job on spec, e.g. "@every 30m".
func NewScheduler(baseCtx context.Context, spec string, target Refresher, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	clog := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(clog),
			cron.SkipIfStillRunning(clog),
		)),
		target:  target,
		logger:  logger,
		timeout: timeout,
		baseCtx: baseCtx,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(s.baseCtx) }); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single forced refresh.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	resp, err := s.target.GetEvents(ctx, true)
	if err != nil {
		s.logger.Warn("scheduled refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled refresh done",
		zap.Int("events", len(resp.Events)),
		zap.Bool("stale", resp.Stale),
		zap.Duration("took", time.Since(started)),
	)
}

func (s *Scheduler) Start() {
	s.logger.Info("refresh scheduler started")
	s.cron.Start()
}

// Stop waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("refresh scheduler stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
