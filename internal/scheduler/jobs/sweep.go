// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"

	"github.com/alext/moneyrobot/internal/sweep"
	"github.com/alext/moneyrobot/pkg/logger"
)

// SweepJob re-runs the full labeling sweep on weekday afternoons so the
// TEST tables carry the latest close before any end-of-day scoring. The
// sweep definition is re-read on every run, so edits to the YAML take
// effect without a restart.
type SweepJob struct {
	configPath string
	deps       sweep.Deps
	logger     *logger.Logger
}

// NewSweepJob creates a scheduled sweep over the given definition file.
func NewSweepJob(configPath string, deps sweep.Deps, log *logger.Logger) *SweepJob {
	return &SweepJob{
		configPath: configPath,
		deps:       deps,
		logger:     log,
	}
}

// Name returns the job name.
func (j *SweepJob) Name() string {
	return "sweep"
}

// Schedule returns the cron schedule: weekdays at 15:30.
func (j *SweepJob) Schedule() string {
	return "0 30 15 * * 1-5"
}

// Run executes one sweep.
func (j *SweepJob) Run(ctx context.Context) error {
	cfg, err := sweep.LoadConfig(j.configPath)
	if err != nil {
		return fmt.Errorf("load sweep config: %w", err)
	}

	summary, err := sweep.NewRunner(cfg, j.deps, j.logger).Run(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"combos":  summary.Combos,
		"skipped": summary.Skipped,
		"tables":  len(summary.Tables),
	}).Info("Scheduled sweep finished")

	return nil
}
