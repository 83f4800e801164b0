package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pharmadelivery/internal/observability"

	"github.com/robfig/cron/v3"
)

// SweepFunc handles whatever is due and reports how many items it touched.
type SweepFunc func(ctx context.Context) (int, error)

// Job runs one SweepFunc on a fixed interval.
type Job struct {
	name    string
	every   time.Duration
	sweep   SweepFunc
	timeout time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewJob creates a job that runs sweep every interval. A run is cancelled
// once it takes longer than the interval.
func NewJob(name string, every time.Duration, sweep SweepFunc, logger *slog.Logger) *Job {
	return &Job{
		name:    name,
		every:   every,
		sweep:   sweep,
		timeout: every,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With("component", name+"_job"),
	}
}

func (j *Job) Name() string {
	return j.name
}

func (j *Job) Start() error {
	if j.every < time.Second {
		return fmt.Errorf("%s: interval %s is shorter than one second", j.name, j.every)
	}
	if _, err := j.cron.AddFunc("@every "+j.every.String(), func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Job started", "every", j.every.String())
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Job stopped")
}

// RunOnce performs one sweep outside the schedule.
func (j *Job) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.sweep(ctx)
	if err != nil {
		observability.JobRunsTotal.WithLabelValues(j.name, "failed").Inc()
		j.logger.ErrorContext(ctx, "Job run failed", "error", err)
		return
	}

	observability.JobRunsTotal.WithLabelValues(j.name, "ok").Inc()
	if n > 0 {
		j.logger.InfoContext(ctx, "Job run handled items", "count", n)
	}
}
