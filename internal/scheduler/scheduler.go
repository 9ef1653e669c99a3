// Package scheduler manages the background maintenance jobs.
package scheduler

import (
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

// JobStatus describes a registered job for monitoring endpoints.
type JobStatus struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	LastErr  string     `json:"last_error,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

type registeredJob struct {
	job      Job
	schedule string
	entryID  cron.EntryID

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.RWMutex
	jobs []*registeredJob
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "0 0 3 * * *"        - 3 AM daily
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	reg := &registeredJob{job: job, schedule: schedule}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		err := job.Run()

		reg.mu.Lock()
		reg.lastRun = time.Now()
		reg.lastErr = err
		reg.mu.Unlock()

		if err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		} else {
			s.log.Debug().Str("job", job.Name()).Msg("Job completed")
		}
	})

	if err != nil {
		return err
	}

	reg.entryID = entryID

	s.mu.Lock()
	s.jobs = append(s.jobs, reg)
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
	return job.Run()
}

// Jobs returns the status of every registered job.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, reg := range s.jobs {
		reg.mu.Lock()
		status := JobStatus{
			Name:     reg.job.Name(),
			Schedule: reg.schedule,
		}
		if !reg.lastRun.IsZero() {
			lastRun := reg.lastRun
			status.LastRun = &lastRun
		}
		if reg.lastErr != nil {
			status.LastErr = reg.lastErr.Error()
		}
		reg.mu.Unlock()

		if entry := s.cron.Entry(reg.entryID); entry.ID == reg.entryID && !entry.Next.IsZero() {
			nextRun := entry.Next
			status.NextRun = &nextRun
		}

		statuses = append(statuses, status)
	}

	return statuses
}
