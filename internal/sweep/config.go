// Package sweep runs the labeling pipeline over the cartesian product of
// configured tickers, strategies, shift periods and move values.
package sweep

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alext/moneyrobot/internal/labeling"
)

// Config is the sweep definition, loaded from YAML. One file describes one
// full run: the parameter grid plus the destinations the produced datasets
// go to.
type Config struct {
	TickerList      []string  `yaml:"ticker_list"`
	StrategyList    []string  `yaml:"strategy_list"`
	ShiftPeriodList []int     `yaml:"shift_period_list"`
	MoveValueList   []float64 `yaml:"move_value_list"`

	TablePrefix string `yaml:"table_prefix"`
	LabelPolicy string `yaml:"label_policy"`

	SaveDataLocally       bool   `yaml:"save_data_locally"`
	LoadDataIntoWarehouse bool   `yaml:"load_data_into_warehouse"`
	ModelFactory          bool   `yaml:"model_factory"`
	APIScoring            bool   `yaml:"api_scoring"`
	DataDir               string `yaml:"data_dir"`
}

// ValidationError reports one invalid config field. The sweep refuses to
// start on any validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadConfig reads and validates a sweep definition. Unknown YAML keys are
// rejected so a typo fails the run instead of silently running defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks all grid and destination constraints.
func (c *Config) Validate() error {
	if len(c.TickerList) == 0 {
		return ValidationError{"ticker_list", "at least one ticker is required"}
	}
	for _, ticker := range c.TickerList {
		if ticker == "" {
			return ValidationError{"ticker_list", "tickers must be non-empty"}
		}
	}

	if len(c.StrategyList) == 0 {
		return ValidationError{"strategy_list", "at least one strategy is required"}
	}
	for _, s := range c.StrategyList {
		switch labeling.Strategy(s) {
		case labeling.StrategyBuy, labeling.StrategySell, labeling.StrategyBoth:
		default:
			return ValidationError{"strategy_list", fmt.Sprintf("unknown strategy %q", s)}
		}
	}

	if len(c.ShiftPeriodList) == 0 {
		return ValidationError{"shift_period_list", "at least one shift period is required"}
	}
	for _, shift := range c.ShiftPeriodList {
		if shift <= 0 {
			return ValidationError{"shift_period_list", "shift periods must be > 0"}
		}
	}

	if len(c.MoveValueList) == 0 {
		return ValidationError{"move_value_list", "at least one move value is required"}
	}

	switch labeling.Policy(c.LabelPolicy) {
	case labeling.PolicyQuantile:
		for _, move := range c.MoveValueList {
			if move < 0 || move > 1 {
				return ValidationError{"move_value_list", "quantile move values must be in [0, 1]"}
			}
		}
		for _, s := range c.StrategyList {
			if labeling.Strategy(s) == labeling.StrategyBoth {
				return ValidationError{"strategy_list", `strategy "both" is not supported by the quantile policy`}
			}
		}
	case labeling.PolicyThreshold:
		for _, move := range c.MoveValueList {
			if move <= 0 {
				return ValidationError{"move_value_list", "threshold move values must be > 0"}
			}
		}
	default:
		return ValidationError{"label_policy", fmt.Sprintf("must be %q or %q", labeling.PolicyQuantile, labeling.PolicyThreshold)}
	}

	if c.TablePrefix == "" {
		return ValidationError{"table_prefix", "required"}
	}

	if c.SaveDataLocally && c.DataDir == "" {
		return ValidationError{"data_dir", "required when save_data_locally is set"}
	}

	return nil
}

// Combos counts the parameter combinations the sweep will run.
func (c *Config) Combos() int {
	return len(c.TickerList) * len(c.StrategyList) * len(c.ShiftPeriodList) * len(c.MoveValueList)
}
