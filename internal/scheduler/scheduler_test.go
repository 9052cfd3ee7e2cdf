package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule("Sunday", "07:00", "America/New_York")
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}
	if schedule.Weekday != time.Sunday {
		t.Errorf("Expected Sunday, got %v", schedule.Weekday)
	}
	if schedule.Hour != 7 || schedule.Minute != 0 {
		t.Errorf("Expected 07:00, got %02d:%02d", schedule.Hour, schedule.Minute)
	}
	if schedule.Location.String() != "America/New_York" {
		t.Errorf("Expected America/New_York, got %v", schedule.Location)
	}

	if _, err := ParseSchedule("friday", "23:59", "UTC"); err != nil {
		t.Errorf("Expected lowercase weekday to parse, got %v", err)
	}

	invalid := []struct {
		weekday, clock, tz string
	}{
		{"Someday", "07:00", "UTC"},
		{"Sunday", "7am", "UTC"},
		{"Sunday", "24:00", "UTC"},
		{"Sunday", "07:60", "UTC"},
		{"Sunday", "07:00", "Mars/Olympus"},
	}
	for _, tt := range invalid {
		if _, err := ParseSchedule(tt.weekday, tt.clock, tt.tz); err == nil {
			t.Errorf("Expected error for %q %q %q", tt.weekday, tt.clock, tt.tz)
		}
	}
}

func TestScheduleNext(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	schedule := Schedule{Weekday: time.Sunday, Hour: 7, Minute: 0, Location: loc}

	// Midweek rolls forward to the coming Sunday.
	from := time.Date(2025, 6, 11, 12, 0, 0, 0, loc)
	next := schedule.Next(from)
	want := time.Date(2025, 6, 15, 7, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}

	// Sunday before the firing time fires the same day.
	from = time.Date(2025, 6, 15, 6, 59, 0, 0, loc)
	next = schedule.Next(from)
	if !next.Equal(want) {
		t.Errorf("Expected same-day firing %v, got %v", want, next)
	}

	// Exactly at the firing instant moves to next week: Next is strictly after.
	next = schedule.Next(want)
	wantNextWeek := time.Date(2025, 6, 22, 7, 0, 0, 0, loc)
	if !next.Equal(wantNextWeek) {
		t.Errorf("Expected %v, got %v", wantNextWeek, next)
	}

	// Across the DST fall-back the local firing time holds steady. In June
	// 07:00 Eastern is 11:00 UTC; on 2025-11-02 it is 12:00 UTC.
	if want.UTC().Hour() != 11 {
		t.Fatalf("Expected summer firing at 11:00 UTC, got %v", want.UTC())
	}
	from = time.Date(2025, 10, 29, 12, 0, 0, 0, loc)
	next = schedule.Next(from)
	if next.In(loc).Hour() != 7 || next.In(loc).Weekday() != time.Sunday {
		t.Errorf("Expected Sunday 07:00 local, got %v", next.In(loc))
	}
	if next.UTC().Hour() != 12 {
		t.Errorf("Expected winter firing at 12:00 UTC, got %v", next.UTC())
	}
}

// pinClock fixes the scheduler's clock a little before the Sunday 07:00 UTC
// firing instant so the wait timer goes off almost immediately.
func pinClock(s *Scheduler, before time.Duration) {
	base := time.Date(2025, 6, 15, 7, 0, 0, 0, time.UTC).Add(-before)
	s.now = func() time.Time { return base }
}

func TestSchedulerFiresAndStops(t *testing.T) {
	schedule := Schedule{Weekday: time.Sunday, Hour: 7, Minute: 0, Location: time.UTC}

	fired := make(chan struct{}, 1)
	s := New(schedule, func(ctx context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	pinClock(s, 30*time.Millisecond)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected job to fire")
	}

	s.Stop()
	s.Stop() // idempotent

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error after Stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return after Stop")
	}
}

func TestSchedulerSkipsOverlappingRun(t *testing.T) {
	schedule := Schedule{Weekday: time.Sunday, Hour: 7, Minute: 0, Location: time.UTC}

	var starts atomic.Int32
	jobStarted := make(chan struct{})
	release := make(chan struct{})
	s := New(schedule, func(ctx context.Context) {
		if starts.Add(1) == 1 {
			close(jobStarted)
		}
		<-release
	})
	pinClock(s, 20*time.Millisecond)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	select {
	case <-jobStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected first firing")
	}

	// Let several more firings come due while the first run is blocked.
	time.Sleep(150 * time.Millisecond)
	if got := starts.Load(); got != 1 {
		t.Errorf("Expected overlapping firings to be skipped, got %d starts", got)
	}

	s.Stop()
	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return after Stop")
	}
	close(release)
}

func TestSchedulerContextCancel(t *testing.T) {
	schedule := Schedule{Weekday: time.Sunday, Hour: 7, Minute: 0, Location: time.UTC}
	s := New(schedule, func(ctx context.Context) {})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return after cancel")
	}
}
