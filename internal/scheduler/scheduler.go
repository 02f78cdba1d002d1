// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	NextRun   time.Time `json:"next_run"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type registration struct {
	id       cron.EntryID
	schedule string
	job      Job
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	jobs    []registration
	lastRun map[string]time.Time
	lastErr map[string]string
}

// New creates a new scheduler. Schedules take a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		lastRun: make(map[string]time.Time),
		lastErr: make(map[string]string),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule
// Schedule examples:
//   - "0 0 3 * * *"   - 3 AM every day
//   - "@hourly"       - Every hour
//   - "@every 30s"    - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, registration{id: id, schedule: schedule, job: job})
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

// Status lists registered jobs with their next and last runs
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, reg := range s.jobs {
		statuses = append(statuses, JobStatus{
			Name:      reg.job.Name(),
			Schedule:  reg.schedule,
			NextRun:   s.cron.Entry(reg.id).Next,
			LastRun:   s.lastRun[reg.job.Name()],
			LastError: s.lastErr[reg.job.Name()],
		})
	}
	return statuses
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	err := job.Run()

	s.mu.Lock()
	s.lastRun[job.Name()] = start.UTC()
	if err != nil {
		s.lastErr[job.Name()] = err.Error()
	} else {
		delete(s.lastErr, job.Name())
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
		return err
	}
	s.log.Debug().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("Job completed")
	return nil
}
