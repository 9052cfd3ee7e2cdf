// Package scheduler fires the weekly digest job at a fixed local wall-clock
// time, e.g. every Sunday at 07:00 in America/New_York.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newsbrief/internal/logger"
)

// Job is the unit of work the scheduler fires.
type Job func(ctx context.Context)

// Schedule describes a weekly firing time in a specific timezone.
type Schedule struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseSchedule builds a Schedule from config strings: a weekday name, a
// HH:MM clock time, and an IANA timezone.
func ParseSchedule(weekday, clock, timezone string) (Schedule, error) {
	var schedule Schedule

	matched := false
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), weekday) {
			schedule.Weekday = day
			matched = true
			break
		}
	}
	if !matched {
		return Schedule{}, fmt.Errorf("invalid weekday %q", weekday)
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return Schedule{}, fmt.Errorf("invalid schedule time %q, expected HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("invalid schedule time %q, expected HH:MM", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Schedule{}, fmt.Errorf("invalid schedule time %q, expected HH:MM", clock)
	}
	schedule.Hour = hour
	schedule.Minute = minute

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	schedule.Location = loc

	return schedule, nil
}

// Next returns the first instant matching the schedule strictly after t.
// The calculation works on wall-clock time in the schedule's location, so
// firings stay at the same local time across DST transitions.
func (s Schedule) Next(t time.Time) time.Time {
	local := t.In(s.Location)
	days := (int(s.Weekday) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+days, s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(t) {
		next = time.Date(local.Year(), local.Month(), local.Day()+days+7, s.Hour, s.Minute, 0, 0, s.Location)
	}
	return next
}

// Scheduler runs a job once per week. Firings never overlap: when a run is
// still in progress at the next scheduled instant, that firing is skipped.
type Scheduler struct {
	schedule Schedule
	job      Job

	running  atomic.Bool
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler for the given schedule and job.
func New(schedule Schedule, job Job) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		job:      job,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start blocks, firing the job at each scheduled instant. It returns the
// context error when ctx is canceled and nil after Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next := s.schedule.Next(s.now())
		logger.Info("Next scheduled run", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.stop:
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if !s.running.CompareAndSwap(false, true) {
			logger.Warn("Previous run still in progress, skipping this firing")
			continue
		}
		go func() {
			defer s.running.Store(false)
			s.job(ctx)
		}()
	}
}

// Stop ends Start. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
