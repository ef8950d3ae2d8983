// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRunTimeout bounds a single scheduled resolution pass
const DefaultRunTimeout = 5 * time.Minute

// parser accepts standard 5-field expressions and descriptors like @hourly
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// PendingResolver resolves provider identities for places that lack one
type PendingResolver interface {
	ResolvePending(ctx context.Context) (int, error)
}

// ResolverJob periodically resolves pending places on a cron schedule
type ResolverJob struct {
	cron       *cron.Cron
	resolver   PendingResolver
	runTimeout time.Duration
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewResolverJob validates schedule and registers the job. It does not start it.
func NewResolverJob(schedule string, resolver PendingResolver, logger *zap.Logger) (*ResolverJob, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid resolver schedule %q: %w", schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &ResolverJob{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		resolver:   resolver,
		runTimeout: DefaultRunTimeout,
		logger:     logger.Named("resolver"),
		ctx:        ctx,
		cancel:     cancel,
	}

	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce(j.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("register resolver job: %w", err)
	}
	return j, nil
}

// Start begins running the schedule in the background
func (j *ResolverJob) Start() {
	j.logger.Info("resolver job started", zap.Time("next_run", j.nextRun()))
	j.cron.Start()
}

// Stop cancels a running pass and waits for it to return
func (j *ResolverJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.logger.Info("resolver job stopped")
}

// RunOnce performs a single resolution pass
func (j *ResolverJob) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.runTimeout)
	defer cancel()

	start := time.Now()
	resolved, err := j.resolver.ResolvePending(ctx)
	if err != nil {
		j.logger.Warn("resolution pass finished with errors",
			zap.Int("resolved", resolved),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return resolved, err
	}

	j.logger.Info("resolution pass finished", zap.Int("resolved", resolved), zap.Duration("took", time.Since(start)))
	return resolved, nil
}

func (j *ResolverJob) nextRun() time.Time {
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}
