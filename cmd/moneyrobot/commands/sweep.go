package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alext/moneyrobot/internal/external/datarobot"
	"github.com/alext/moneyrobot/internal/external/yahoo"
	"github.com/alext/moneyrobot/internal/indicators"
	"github.com/alext/moneyrobot/internal/labeling"
	"github.com/alext/moneyrobot/internal/sweep"
	"github.com/alext/moneyrobot/internal/warehouse"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/database"
	"github.com/alext/moneyrobot/pkg/logger"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the full labeling sweep once",
	Long: `Runs the labeling pipeline over every configured parameter
combination and ships the produced TRAIN and TEST datasets to their
destinations.

This command:
- Loads the sweep definition (tickers, strategies, shifts, moves)
- Fetches daily price history once per ticker
- Computes the TARGET column under the configured label policy
- Enriches each dataset with technical indicator columns
- Writes TRAIN/TEST tables, CSVs, model-factory projects and scores
  depending on the destinations enabled in the definition

Example:
  go run ./cmd/moneyrobot sweep
  go run ./cmd/moneyrobot sweep --config my_sweep.yaml`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	sweepCfg, err := sweep.LoadConfig(sweepFile)
	if err != nil {
		return fmt.Errorf("load sweep definition: %w", err)
	}

	deps, cleanup, err := buildSweepDeps(cfg, sweepCfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := sweep.NewRunner(sweepCfg, deps, log).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Sweep finished: %d combinations, %d skipped, %d tables written\n",
		summary.Combos, summary.Skipped, len(summary.Tables))
	return nil
}

// buildSweepDeps wires the runner's collaborators for the destinations the
// sweep definition enables. The returned cleanup closes the warehouse pool.
func buildSweepDeps(cfg *config.Config, sweepCfg *sweep.Config, log *logger.Logger) (sweep.Deps, func(), error) {
	deps := sweep.Deps{
		Source:   yahoo.New(log, 2),
		Enricher: indicators.NewCalculator(log),
	}
	cleanup := func() {}

	engine, err := labeling.NewEngine(labeling.Policy(sweepCfg.LabelPolicy), log)
	if err != nil {
		return deps, cleanup, err
	}
	deps.Engine = engine

	if sweepCfg.LoadDataIntoWarehouse {
		db, err := database.New(cfg)
		if err != nil {
			return deps, cleanup, fmt.Errorf("connect to warehouse: %w", err)
		}
		cleanup = db.Close
		deps.Writer = warehouse.NewLoader(db, log)
	}

	if sweepCfg.ModelFactory || sweepCfg.APIScoring {
		client := datarobot.New(cfg.DataRobot, log)
		deps.Factory = client
		deps.Scorer = client
	}

	return deps, cleanup, nil
}
