package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alext/moneyrobot/internal/scheduler"
	"github.com/alext/moneyrobot/internal/scheduler/jobs"
	"github.com/alext/moneyrobot/internal/sweep"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sweeps on a schedule",
	Long: `Starts the scheduler and re-runs the full sweep on weekday
afternoons, so the TEST tables carry the latest close before any
end-of-day scoring.

The sweep definition file is re-read on every run; edits take effect
without restarting.

Example:
  go run ./cmd/moneyrobot schedule
  go run ./cmd/moneyrobot schedule --config my_sweep.yaml`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	// Validate the definition up front so a broken file fails at startup,
	// not at the first scheduled run.
	sweepCfg, err := sweep.LoadConfig(sweepFile)
	if err != nil {
		return fmt.Errorf("load sweep definition: %w", err)
	}

	deps, cleanup, err := buildSweepDeps(cfg, sweepCfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(log)
	job := jobs.NewSweepJob(sweepFile, deps, log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Printf("Scheduler running, sweep at %q. Press Ctrl+C to stop.\n", job.Schedule())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	return nil
}
