package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "airmon", cfg.Database.DBName)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, "48h", cfg.Prediction.LookbackWindow)
	assert.Equal(t, "1h", cfg.Prediction.BucketSize)
	assert.Equal(t, 24, cfg.Prediction.TrendLookback)
	assert.Equal(t, 24, cfg.Prediction.MaxHorizonHours)

	assert.False(t, cfg.Collector.Enabled)
	assert.Equal(t, "rmcab", cfg.Collector.SourceName)
	assert.True(t, cfg.Reports.Enabled)
	assert.Equal(t, "00:10", cfg.Reports.GenerateTime)
	assert.Equal(t, "UNHEALTHY", cfg.Telegram.AlertSeverity)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PREDICTION_LOOKBACK_WINDOW", "24h")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "24h", cfg.Prediction.LookbackWindow)
	assert.Equal(t, "test-token", cfg.Telegram.BotToken)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("PREDICTION_BUCKET_SIZE", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prediction.bucket_size")
}

func TestLoadRejectsTinyTrendLookback(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("PREDICTION_TREND_LOOKBACK", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trend_lookback")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 48*time.Hour, Duration("48h"))
	assert.Equal(t, 5*time.Minute, Duration("5m"))
	assert.Panics(t, func() { Duration("bogus") })
}
