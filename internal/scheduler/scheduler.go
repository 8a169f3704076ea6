package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// delays below this start right away; gocron rejects start times already in the past.
const minDelay = 10 * time.Millisecond

// CancelFunc removes a pending task. Calling it after the task ran is a no-op.
type CancelFunc func()

// Scheduler wraps a gocron scheduler for one-shot delayed tasks.
type Scheduler struct {
	logger    *slog.Logger
	scheduler gocron.Scheduler
}

func New(logger *slog.Logger, options ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		logger:    logger.With("component", "scheduler"),
		scheduler: s,
	}, nil
}

func (that *Scheduler) Start() {
	that.logger.Info("Starting scheduler")
	that.scheduler.Start()
}

func (that *Scheduler) Stop() error {
	that.logger.Info("Stopping scheduler")

	if err := that.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	return nil
}

// After runs task once, delay from now.
func (that *Scheduler) After(delay time.Duration, task func()) (CancelFunc, error) {
	start := gocron.OneTimeJobStartImmediately()
	if delay >= minDelay {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}

	job, err := that.scheduler.NewJob(gocron.OneTimeJob(start), gocron.NewTask(task))
	if errors.Is(err, gocron.ErrOneTimeJobStartDateTimePast) {
		that.logger.Debug("start time already passed, running task now", "delay", delay.String())
		job, err = that.scheduler.NewJob(gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()), gocron.NewTask(task))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to schedule task: %w", err)
	}

	id := job.ID()

	return func() {
		err := that.scheduler.RemoveJob(id)
		if err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			that.logger.Warn("failed to cancel task", "job", id.String(), "error", err)
		}
	}, nil
}
