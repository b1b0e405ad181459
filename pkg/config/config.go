package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration. Sweep parameters (tickers,
// strategies, shifts, moves) live in a separate YAML file, see internal/sweep.
type Config struct {
	Env string // development, staging, production

	// Warehouse
	Warehouse WarehouseConfig

	// ML platform (DataRobot)
	DataRobot DataRobotConfig

	// Status API
	APIPort string

	// Logging
	LogLevel  string
	LogFormat string
}

// WarehouseConfig holds the warehouse connection configuration.
// Credentials are injected here once at process start and never logged.
type WarehouseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DataRobotConfig holds the ML-platform credentials. The buy and sell
// strategies score against separate deployments.
type DataRobotConfig struct {
	Endpoint string
	Token    string

	BuyDeploymentID  string
	BuyDeploymentKey string

	SellDeploymentID  string
	SellDeploymentKey string
}

// Load reads configuration from environment variables. This is the only
// place that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Warehouse: WarehouseConfig{
			URL:             getEnv("WAREHOUSE_URL", ""),
			MaxConns:        getEnvAsInt("WAREHOUSE_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("WAREHOUSE_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("WAREHOUSE_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("WAREHOUSE_MAX_CONN_IDLE_TIME", "30m"),
		},

		DataRobot: DataRobotConfig{
			Endpoint:          getEnv("DATAROBOT_ENDPOINT", "https://app.datarobot.com/api/v2"),
			Token:             getEnv("DATAROBOT_TOKEN", ""),
			BuyDeploymentID:   getEnv("DATAROBOT_BUY_DEPLOYMENT_ID", ""),
			BuyDeploymentKey:  getEnv("DATAROBOT_BUY_DEPLOYMENT_KEY", ""),
			SellDeploymentID:  getEnv("DATAROBOT_SELL_DEPLOYMENT_ID", ""),
			SellDeploymentKey: getEnv("DATAROBOT_SELL_DEPLOYMENT_KEY", ""),
		},

		APIPort: getEnv("API_PORT", "8090"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Warehouse.URL == "" {
		return fmt.Errorf("WAREHOUSE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
