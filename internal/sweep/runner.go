package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/internal/external/datarobot"
	"github.com/alext/moneyrobot/internal/labeling"
	"github.com/alext/moneyrobot/internal/warehouse"
	"github.com/alext/moneyrobot/pkg/logger"
)

// TableWriter loads one frame into one warehouse table.
type TableWriter interface {
	Write(ctx context.Context, table string, action warehouse.Action, f *dataset.Frame) error
}

// ModelFactory creates one training project per produced TRAIN dataset.
type ModelFactory interface {
	CreateProject(ctx context.Context, identifier string, f *dataset.Frame) (*datarobot.Project, error)
}

// Scorer scores a frame against the deployment for a strategy.
type Scorer interface {
	Score(ctx context.Context, strategy string, f *dataset.Frame) ([]datarobot.Prediction, error)
}

// Deps are the runner's collaborators. Writer, Factory and Scorer may be
// nil when the config does not enable the corresponding destination.
type Deps struct {
	Source   contracts.PriceSource
	Enricher contracts.Enricher
	Engine   *labeling.Engine
	Writer   TableWriter
	Factory  ModelFactory
	Scorer   Scorer
}

// Runner executes one sweep: for every (ticker, strategy, shift, move)
// combination it labels the price history, enriches it with indicators,
// and ships the TRAIN and TEST datasets to the configured destinations.
type Runner struct {
	cfg    *Config
	deps   Deps
	logger *logger.Logger
}

// Summary reports what one sweep run produced.
type Summary struct {
	Combos  int
	Skipped int
	Tables  []string
}

// NewRunner creates a sweep runner. The config must already be validated.
func NewRunner(cfg *Config, deps Deps, log *logger.Logger) *Runner {
	return &Runner{cfg: cfg, deps: deps, logger: log.WithField("module", "sweep")}
}

// Run executes the full parameter grid. History is fetched once per ticker
// and shared across that ticker's combinations. A series too short for a
// shift skips that combination; any fetch, write or identifier failure
// aborts the run with the offending parameters in the error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	// Table names produced so far this run, mapped to the parameters that
	// produced them. Each name must be written exactly once.
	produced := make(map[string]string)

	r.logger.WithFields(map[string]interface{}{
		"tickers": len(r.cfg.TickerList),
		"combos":  r.cfg.Combos(),
		"policy":  r.cfg.LabelPolicy,
	}).Info("Sweep started")

	for _, ticker := range r.cfg.TickerList {
		series, err := r.deps.Source.History(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("fetch history for %s: %w", ticker, err)
		}

		for _, strategy := range r.cfg.StrategyList {
			for _, shift := range r.cfg.ShiftPeriodList {
				for _, move := range r.cfg.MoveValueList {
					summary.Combos++

					err := r.runCombo(ctx, summary, produced, series, ticker, strategy, shift, move)
					if err == nil {
						continue
					}

					var insufficient *labeling.DataInsufficientError
					if errors.As(err, &insufficient) {
						r.logger.WithFields(map[string]interface{}{
							"ticker": ticker,
							"shift":  shift,
							"rows":   insufficient.Rows,
						}).Warn("Series too short, skipping combination")
						summary.Skipped++
						continue
					}

					return nil, fmt.Errorf("ticker=%s strategy=%s shift=%d move=%v: %w",
						ticker, strategy, shift, move, err)
				}
			}
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"combos":  summary.Combos,
		"skipped": summary.Skipped,
		"tables":  len(summary.Tables),
	}).Info("Sweep completed")

	return summary, nil
}

// runCombo produces and ships the datasets for one parameter combination.
func (r *Runner) runCombo(ctx context.Context, summary *Summary, produced map[string]string,
	series contracts.PriceSeries, ticker, strategy string, shift int, move float64) error {

	params := labeling.Params{
		ShiftPeriods: shift,
		MoveValue:    move,
		Strategy:     labeling.Strategy(strategy),
	}

	labeled, err := r.deps.Engine.Label(series, params)
	if err != nil {
		return err
	}

	frame, err := r.buildFrame(series, labeled)
	if err != nil {
		return fmt.Errorf("build frame: %w", err)
	}

	from, to := r.deps.Engine.ValidRange(len(series), shift)
	train := frame.Slice(from, to)
	test := frame.Tail(1)

	trainIdent := warehouse.BuildIdentifier(r.cfg.TablePrefix, ticker, strategy, shift, move, warehouse.RoleTrain)
	testIdent := warehouse.BuildIdentifier(r.cfg.TablePrefix, ticker, strategy, shift, move, warehouse.RoleTest)

	comboDesc := fmt.Sprintf("ticker=%s strategy=%s shift=%d move=%v", ticker, strategy, shift, move)
	for _, ident := range []string{trainIdent, testIdent} {
		if prev, ok := produced[ident]; ok {
			return &warehouse.CollisionError{Identifier: ident, First: prev, Second: comboDesc}
		}
		produced[ident] = comboDesc
	}

	if r.cfg.SaveDataLocally {
		for ident, f := range map[string]*dataset.Frame{trainIdent: train, testIdent: test} {
			if _, err := dataset.WriteCSV(r.cfg.DataDir, ident, f); err != nil {
				return err
			}
		}
	}

	if r.cfg.LoadDataIntoWarehouse {
		if err := r.deps.Writer.Write(ctx, trainIdent, warehouse.ActionCreateReplace, train); err != nil {
			return err
		}
		if err := r.deps.Writer.Write(ctx, testIdent, warehouse.ActionCreateReplace, test); err != nil {
			return err
		}
		summary.Tables = append(summary.Tables, trainIdent, testIdent)
	}

	// Projects and deployments are built on upper-cased feature names,
	// matching the warehouse identifier casing. Upper-case here so the
	// payloads are right even when the warehouse load is disabled.
	if r.cfg.ModelFactory || r.cfg.APIScoring {
		train.UpperCaseNames()
		test.UpperCaseNames()
	}

	if r.cfg.ModelFactory {
		if _, err := r.deps.Factory.CreateProject(ctx, trainIdent, train); err != nil {
			return fmt.Errorf("model factory: %w", err)
		}
	}

	if r.cfg.APIScoring && strategy != string(labeling.StrategyBoth) {
		predictions, err := r.deps.Scorer.Score(ctx, strategy, test)
		if err != nil {
			return fmt.Errorf("api scoring: %w", err)
		}
		for _, p := range predictions {
			r.logger.WithFields(map[string]interface{}{
				"ticker":      ticker,
				"strategy":    strategy,
				"shift":       shift,
				"move":        move,
				"prediction":  p.PredictionValue,
				"probability": p.Probability,
			}).Info("Scored latest row")
		}
	}

	return nil
}

// buildFrame assembles the full dataset for one combination: raw prices,
// the TARGET column, then the indicator columns. The indicator columns must
// match the set the enricher declares; downstream table layouts depend on
// that set being stable.
func (r *Runner) buildFrame(series contracts.PriceSeries, labeled []labeling.LabeledRow) (*dataset.Frame, error) {
	n := len(series)
	dates := make([]string, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]int64, n)
	dividends := make([]float64, n)
	splits := make([]float64, n)
	for i, row := range series {
		dates[i] = row.Date
		opens[i] = row.Open
		highs[i] = row.High
		lows[i] = row.Low
		closes[i] = row.Close
		volumes[i] = row.Volume
		dividends[i] = row.Dividends
		splits[i] = row.StockSplits
	}

	cols := []*dataset.Column{
		dataset.TimeColumn("Date", dates),
		dataset.FloatColumn("Open", opens),
		dataset.FloatColumn("High", highs),
		dataset.FloatColumn("Low", lows),
		dataset.FloatColumn("Close", closes),
		dataset.IntColumn("Volume", volumes),
		dataset.FloatColumn("Dividends", dividends),
		dataset.FloatColumn("Stock Splits", splits),
		labeling.TargetColumn(r.deps.Engine.Policy(), labeled),
	}

	indicators, err := r.deps.Enricher.Enrich(series)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	declared := r.deps.Enricher.Columns()
	if len(indicators) != len(declared) {
		return nil, fmt.Errorf("enricher produced %d columns, declared %d", len(indicators), len(declared))
	}
	for i, ind := range indicators {
		if ind.Name != declared[i] {
			return nil, fmt.Errorf("enricher column %d is %q, declared %q", i, ind.Name, declared[i])
		}
		cols = append(cols, dataset.FloatColumn(ind.Name, ind.Values))
	}

	frame, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}
	// Yahoo names the column with a space; warehouse identifiers cannot
	// carry one.
	frame.Rename("Stock Splits", "STOCK_SPLITS")
	return frame, nil
}
