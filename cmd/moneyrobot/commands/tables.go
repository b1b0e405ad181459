package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alext/moneyrobot/internal/sweep"
	"github.com/alext/moneyrobot/internal/warehouse"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/database"
	"github.com/alext/moneyrobot/pkg/logger"
)

// tablesCmd represents the tables command
var tablesCmd = &cobra.Command{
	Use:   "tables [prefix]",
	Short: "List produced warehouse tables",
	Long: `Lists the warehouse tables under a name prefix. Without an
argument the prefix comes from the sweep definition's table_prefix.

Example:
  go run ./cmd/moneyrobot tables
  go run ./cmd/moneyrobot tables ALEXT`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	} else {
		sweepCfg, err := sweep.LoadConfig(sweepFile)
		if err != nil {
			return fmt.Errorf("load sweep definition for table_prefix: %w", err)
		}
		prefix = sweepCfg.TablePrefix
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to warehouse: %w", err)
	}
	defer db.Close()

	tables, err := warehouse.NewLoader(db, log).ListTables(cmd.Context(), prefix)
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		fmt.Printf("No tables under prefix %s\n", prefix)
		return nil
	}

	fmt.Printf("%d tables under prefix %s:\n", len(tables), prefix)
	for _, table := range tables {
		fmt.Printf("  %s\n", table)
	}
	return nil
}
