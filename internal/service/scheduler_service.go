package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the background jobs: the periodic cache sweep and
// the optional daily digest.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a job that fires once a day at the given HH:MM.
func (s *SchedulerService) ScheduleDaily(at string, job func()) (cron.EntryID, error) {
	clock, err := time.Parse("15:04", at)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", at, err)
	}
	// cron format: second minute hour dom month dow
	return s.cron.AddFunc(fmt.Sprintf("0 %d %d * * *", clock.Minute(), clock.Hour()), job)
}

// ScheduleInterval registers a job that fires every interval, rounded down
// to whole seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval %s too short", interval)
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), job)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for any running job to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
