package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyclean/domain/cleaning"
	"surveyclean/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "LOG_FORMAT", "CLEAN_MISSING_METHOD",
		"CLEAN_OUTLIER_METHOD", "CLEAN_OUTLIER_THRESHOLD", "WEIGHT_COLUMN", "WEIGHT_MARGIN_OF_ERROR", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, cleaning.DefaultConfig(), cfg.Cleaning.Defaults)
	assert.True(t, cfg.Weights.ComputeMarginOfError)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CLEAN_MISSING_METHOD", "median")
	t.Setenv("CLEAN_OUTLIER_METHOD", "zscore")
	t.Setenv("CLEAN_OUTLIER_THRESHOLD", "3")
	t.Setenv("WEIGHT_COLUMN", "wt")
	t.Setenv("WEIGHT_MARGIN_OF_ERROR", "false")
	t.Setenv("NOISE_SEED", "7")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cleaning.MissingMedian, cfg.Cleaning.Defaults.MissingValueMethod)
	assert.Equal(t, cleaning.OutlierZScore, cfg.Cleaning.Defaults.OutlierMethod)
	assert.Equal(t, 3.0, cfg.Cleaning.Defaults.OutlierThreshold)
	assert.Equal(t, int64(7), cfg.Cleaning.NoiseSeed)
	assert.Equal(t, "wt", cfg.Weights.WeightColumn)
	assert.False(t, cfg.Weights.ComputeMarginOfError)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsNonPositiveThreshold(t *testing.T) {
	t.Setenv("CLEAN_OUTLIER_THRESHOLD", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	assert.Error(t, err)
}
