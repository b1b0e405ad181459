package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `ticker_list: [SPY, QQQ]
strategy_list: [buy, sell]
shift_period_list: [1, 3]
move_value_list: [1.0, 2.5]
table_prefix: ALEXT
label_policy: threshold
save_data_locally: false
load_data_into_warehouse: true
model_factory: false
api_scoring: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.TickerList)
	assert.Equal(t, []string{"buy", "sell"}, cfg.StrategyList)
	assert.Equal(t, []int{1, 3}, cfg.ShiftPeriodList)
	assert.Equal(t, []float64{1.0, 2.5}, cfg.MoveValueList)
	assert.Equal(t, "ALEXT", cfg.TablePrefix)
	assert.Equal(t, "threshold", cfg.LabelPolicy)
	assert.True(t, cfg.LoadDataIntoWarehouse)
	assert.Equal(t, 16, cfg.Combos())
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, validYAML+"tiker_list: [SPY]\n"))
	require.Error(t, err, "a typoed key must fail the run")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			TickerList:      []string{"SPY"},
			StrategyList:    []string{"buy"},
			ShiftPeriodList: []int{3},
			MoveValueList:   []float64{1.5},
			TablePrefix:     "ALEXT",
			LabelPolicy:     "threshold",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no tickers", func(c *Config) { c.TickerList = nil }, "ticker_list"},
		{"empty ticker", func(c *Config) { c.TickerList = []string{""} }, "ticker_list"},
		{"no strategies", func(c *Config) { c.StrategyList = nil }, "strategy_list"},
		{"bad strategy", func(c *Config) { c.StrategyList = []string{"short"} }, "strategy_list"},
		{"no shifts", func(c *Config) { c.ShiftPeriodList = nil }, "shift_period_list"},
		{"zero shift", func(c *Config) { c.ShiftPeriodList = []int{0} }, "shift_period_list"},
		{"no moves", func(c *Config) { c.MoveValueList = nil }, "move_value_list"},
		{"threshold move not positive", func(c *Config) { c.MoveValueList = []float64{0} }, "move_value_list"},
		{"bad policy", func(c *Config) { c.LabelPolicy = "zscore" }, "label_policy"},
		{"no prefix", func(c *Config) { c.TablePrefix = "" }, "table_prefix"},
		{"local save without dir", func(c *Config) { c.SaveDataLocally = true }, "data_dir"},
		{
			"quantile move out of range",
			func(c *Config) { c.LabelPolicy = "quantile"; c.MoveValueList = []float64{1.5} },
			"move_value_list",
		},
		{
			"quantile with both",
			func(c *Config) { c.LabelPolicy = "quantile"; c.MoveValueList = []float64{0.7}; c.StrategyList = []string{"both"} },
			"strategy_list",
		},
		{
			"threshold with both",
			func(c *Config) { c.StrategyList = []string{"both"} },
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}
