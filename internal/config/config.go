package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates all configuration settings for the application.
type Config struct {
	// Environment indicates the running environment (e.g., "development", "production").
	Environment string `mapstructure:"environment"`
	// LogLevel sets the global logging verbosity.
	LogLevel string `mapstructure:"log_level"`
	// Server holds configuration for the HTTP server.
	Server ServerConfig `mapstructure:"server"`
	// Redis holds configuration for the Redis connection.
	Redis RedisConfig `mapstructure:"redis"`
	// MarketData holds configuration for the exchange data source.
	MarketData MarketDataConfig `mapstructure:"market_data"`
	// Backtest holds defaults for single backtest runs.
	Backtest BacktestConfig `mapstructure:"backtest"`
	// Sweep holds limits for parameter sweeps.
	Sweep SweepConfig `mapstructure:"sweep"`
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	// Port is the TCP port the server listens on.
	Port int `mapstructure:"port"`
	// AllowedOrigins is a list of CORS allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MarketDataConfig defines the exchange data source settings.
type MarketDataConfig struct {
	// BaseURL is the exchange REST API root.
	BaseURL string `mapstructure:"base_url"`
	// Symbol is the traded pair all backtests run against.
	Symbol string `mapstructure:"symbol"`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// BacktestConfig defines defaults for single runs.
type BacktestConfig struct {
	// InitialCapital is the starting cash when the request omits one.
	InitialCapital float64 `mapstructure:"initial_capital"`
	// DefaultTimeframe is used when the request omits a timeframe.
	DefaultTimeframe string `mapstructure:"default_timeframe"`
	// DefaultPeriod is used when the request omits a period.
	DefaultPeriod string `mapstructure:"default_period"`
}

// SweepConfig bounds parameter sweep workloads.
type SweepConfig struct {
	// Workers is the worker pool size; zero means one per CPU.
	Workers int `mapstructure:"workers"`
	// MaxCombinationsPerStrategy caps each strategy's expanded grid.
	MaxCombinationsPerStrategy int `mapstructure:"max_combinations_per_strategy"`
	// MaxTotalRuns caps the whole sweep across all strategies.
	MaxTotalRuns int `mapstructure:"max_total_runs"`
	// MaxDurationSeconds aborts sweeps that run longer than this.
	MaxDurationSeconds int `mapstructure:"max_duration_seconds"`
	// DefaultTopN is the leaderboard size when the request omits top_n.
	DefaultTopN int `mapstructure:"default_top_n"`
}

// Load reads configuration from config.yaml (optional) and environment
// variables, falling back to defaults.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("redis.host", "REDIS_HOST")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("market_data.base_url", "MARKET_DATA_BASE_URL")
	_ = viper.BindEnv("market_data.symbol", "MARKET_DATA_SYMBOL")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("market_data.base_url", "https://api.binance.com")
	viper.SetDefault("market_data.symbol", "BTCUSDT")
	viper.SetDefault("market_data.timeout_seconds", 30)

	viper.SetDefault("backtest.initial_capital", 10000.0)
	viper.SetDefault("backtest.default_timeframe", "1d")
	viper.SetDefault("backtest.default_period", "1y")

	viper.SetDefault("sweep.workers", 0)
	viper.SetDefault("sweep.max_combinations_per_strategy", 500)
	viper.SetDefault("sweep.max_total_runs", 5000)
	viper.SetDefault("sweep.max_duration_seconds", 300)
	viper.SetDefault("sweep.default_top_n", 20)
}
