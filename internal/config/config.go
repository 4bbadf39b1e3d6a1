package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Prediction  PredictionConfig `mapstructure:"prediction"`
	Collector   CollectorConfig  `mapstructure:"collector"`
	Reports     ReportsConfig    `mapstructure:"reports"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PredictionConfig controls the aggregate-and-predict pipeline. All knobs
// are injected into the services at construction so tests can substitute
// alternate windows deterministically.
type PredictionConfig struct {
	LookbackWindow  string `mapstructure:"lookback_window"`
	BucketSize      string `mapstructure:"bucket_size"`
	TrendLookback   int    `mapstructure:"trend_lookback"`
	AggregateTTL    string `mapstructure:"aggregate_ttl"`
	RequestTimeout  string `mapstructure:"request_timeout"`
	DefaultHorizon  string `mapstructure:"default_horizon"`
	MaxHorizonHours int    `mapstructure:"max_horizon_hours"`
}

type CollectorConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SourceURL     string `mapstructure:"source_url"`
	SourceName    string `mapstructure:"source_name"`
	FetchInterval string `mapstructure:"fetch_interval"`
	FetchTimeout  string `mapstructure:"fetch_timeout"`
	BackfillHours int    `mapstructure:"backfill_hours"`
}

type ReportsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	GenerateTime string `mapstructure:"generate_time"`
	SMAWindow    int    `mapstructure:"sma_window"`
}

type TelegramConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	AlertSeverity string `mapstructure:"alert_severity"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	for name, value := range map[string]string{
		"prediction.lookback_window": config.Prediction.LookbackWindow,
		"prediction.bucket_size":     config.Prediction.BucketSize,
		"prediction.aggregate_ttl":   config.Prediction.AggregateTTL,
		"prediction.request_timeout": config.Prediction.RequestTimeout,
		"prediction.default_horizon": config.Prediction.DefaultHorizon,
		"collector.fetch_interval":   config.Collector.FetchInterval,
		"collector.fetch_timeout":    config.Collector.FetchTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	if config.Prediction.TrendLookback < 2 {
		return nil, fmt.Errorf("prediction.trend_lookback must be at least 2, got %d", config.Prediction.TrendLookback)
	}

	return &config, nil
}

// Duration returns a parsed duration field. Load validates every duration
// field, so this only panics on fields that bypassed Load.
func Duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("config: invalid duration %q: %v", s, err))
	}
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "airmon")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.conn_max_lifetime", "300s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Prediction pipeline
	viper.SetDefault("prediction.lookback_window", "48h")
	viper.SetDefault("prediction.bucket_size", "1h")
	viper.SetDefault("prediction.trend_lookback", 24)
	viper.SetDefault("prediction.aggregate_ttl", "5m")
	viper.SetDefault("prediction.request_timeout", "10s")
	viper.SetDefault("prediction.default_horizon", "1h")
	viper.SetDefault("prediction.max_horizon_hours", 24)

	// Collector
	viper.SetDefault("collector.enabled", false)
	viper.SetDefault("collector.source_url", "")
	viper.SetDefault("collector.source_name", "rmcab")
	viper.SetDefault("collector.fetch_interval", "1h")
	viper.SetDefault("collector.fetch_timeout", "30s")
	viper.SetDefault("collector.backfill_hours", 24)

	// Daily reports
	viper.SetDefault("reports.enabled", true)
	viper.SetDefault("reports.generate_time", "00:10")
	viper.SetDefault("reports.sma_window", 4)

	// Telegram alerts
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.alert_severity", "UNHEALTHY")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "airmon")
	viper.SetDefault("telemetry.service_version", "1.0.0")
}
