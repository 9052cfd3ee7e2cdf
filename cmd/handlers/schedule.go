package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsbrief/internal/config"
	"newsbrief/internal/logger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/scheduler"

	"github.com/spf13/cobra"
)

// NewScheduleCmd creates the schedule command
func NewScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the weekly digest job on a schedule",
		Long: `Start the long-running scheduler that fires the digest job once per
week at the configured local wall-clock time.

The schedule comes from configuration:

  schedule:
    weekday: Sunday
    hour: 7
    minute: 0
    timezone: America/New_York

The process runs until interrupted with SIGINT or SIGTERM. A run still in
progress at the next firing time is not overlapped; that firing is skipped.`,
		Run: func(cmd *cobra.Command, args []string) {
			scheduleRun()
		},
	}
}

func scheduleRun() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	st := openStore()
	defer closeStore(st)

	job, err := pipeline.NewBuilder(cfg).WithStore(st).BuildJob()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	clock := fmt.Sprintf("%02d:%02d", cfg.Schedule.Hour, cfg.Schedule.Minute)
	schedule, err := scheduler.ParseSchedule(cfg.Schedule.Weekday, clock, cfg.Schedule.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid schedule: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("📅 Weekly digest scheduled: %s %s (%s)\n", cfg.Schedule.Weekday, clock, cfg.Schedule.Timezone)
	fmt.Println("Press Ctrl+C to stop")

	s := scheduler.New(schedule, func(ctx context.Context) {
		if err := job.Run(ctx); err != nil {
			logger.Error("Scheduled run failed", err)
		}
	})

	err = s.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped unexpectedly", err)
		os.Exit(1)
	}

	fmt.Println("\n👋 Scheduler stopped")
}
