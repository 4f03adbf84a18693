package scheduler

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers the scrape job on a cron schedule. The job itself is
// injected so the scheduler stays free of scraping details.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	job      func()
}

// New creates a new Scheduler running job on the given cron expression.
func New(schedule string, job func()) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		job:      job,
	}
}

// Start registers the job and starts the cron loop. A blank schedule disables
// the scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		log.Info("Scrape schedule not configured, scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		log.Info("Running scheduled scrape", "schedule", s.schedule)
		s.job()
	}); err != nil {
		return fmt.Errorf("failed to schedule scrape: %w", err)
	}
	s.cron.Start()
	log.Info("Scrape scheduled", "schedule", s.schedule)
	return nil
}

// Stop halts the cron loop. Running jobs finish on their own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
