package config

import (
	"testing"

	"simvote/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"LOG_LEVEL", "SIMVOTE_OUTPUT_DIR", "SIMVOTE_OVERWRITE", "SIMVOTE_CHART_WIDTH",
		"SIMVOTE_CHART_HEIGHT", "SIMVOTE_HIST_BINS", "SIMVOTE_LOAD_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SIMVOTE_OUTPUT_DIR", "/tmp/charts")
	t.Setenv("SIMVOTE_OVERWRITE", "true")
	t.Setenv("SIMVOTE_CHART_WIDTH", "800")
	t.Setenv("SIMVOTE_HIST_BINS", "25")
	t.Setenv("SIMVOTE_LOAD_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "/tmp/charts", cfg.Output.Dir)
	assert.True(t, cfg.Output.Overwrite)
	assert.Equal(t, 800, cfg.Chart.Width)
	assert.Equal(t, DefaultChartHeight, cfg.Chart.Height)
	assert.Equal(t, 25, cfg.Chart.HistBins)
	assert.Equal(t, 2, cfg.Load.Concurrency)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIMVOTE_HIST_BINS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultHistBins, cfg.Chart.HistBins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "VERBOSE"},
		{"SIMVOTE_CHART_WIDTH", "10"},
		{"SIMVOTE_HIST_BINS", "0"},
		{"SIMVOTE_LOAD_CONCURRENCY", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
