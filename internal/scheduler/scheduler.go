package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"wordslayer/internal/logger"
)

// Job is one periodic unit of work
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Jobs are the batch jobs driven by the scheduler
type Jobs struct {
	HardWords       Job
	WeeklyIncorrect Job
	Morale          Job
}

// Scheduler runs the batch jobs on their schedules
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      Jobs
	log       *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates a scheduler whose cron expressions use loc
func New(loc *time.Location, jobs Jobs, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		jobs:      jobs,
		log:       log.With("component", "scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers every configured job and starts the scheduler without blocking
func (s *Scheduler) Start() error {
	if s.jobs.HardWords != nil {
		// Hourly at minute 5
		if _, err := s.scheduler.Cron("5 * * * *").Do(s.run, "hard_words", s.jobs.HardWords); err != nil {
			return fmt.Errorf("failed to schedule hard word job: %w", err)
		}
	}
	if s.jobs.WeeklyIncorrect != nil {
		if _, err := s.scheduler.Every(5).Minutes().Do(s.run, "weekly_incorrect", s.jobs.WeeklyIncorrect); err != nil {
			return fmt.Errorf("failed to schedule weekly incorrect job: %w", err)
		}
	}
	if s.jobs.Morale != nil {
		if _, err := s.scheduler.Every(1).Hour().Do(s.run, "morale", s.jobs.Morale); err != nil {
			return fmt.Errorf("failed to schedule morale job: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.log.Info("Scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.scheduler.Stop()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

// run executes one job invocation. Errors and panics are logged and never
// reach gocron.
func (s *Scheduler) run(name string, job Job) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := s.log.With("job", name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return
	}
	log.Debug("Job finished", "duration", time.Since(start))
}
