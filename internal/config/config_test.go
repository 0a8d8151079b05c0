package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

var configEnvVars = []string{
	"CELLPEAK_ANALYSIS_PEAK_WINDOW",
	"CELLPEAK_ANALYSIS_PEAK_THRESHOLD",
	"CELLPEAK_ANALYSIS_TIME_UNIT",
	"CELLPEAK_ANALYSIS_TRIM_CRITERIA",
	"CELLPEAK_ANALYSIS_TRIM_AMOUNT",
	"CELLPEAK_ANALYSIS_FILTERS",
	"CELLPEAK_ANALYSIS_EXCLUDE_ZERO_NUMERIC",
	"CELLPEAK_OUTPUT_FORMAT",
	"CELLPEAK_SERVER_PORT",
	"CELLPEAK_SERVER_READ_TIMEOUT",
	"CELLPEAK_PROCESSING_FILE_WORKERS",
}

// clearEnv unsets every variable the tests touch; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErrType apperrors.ErrorType
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.Analysis.PeakWindow)
				assert.Nil(t, cfg.Analysis.PeakThreshold)
				assert.Equal(t, "s", cfg.Analysis.TimeUnit)
				assert.Equal(t, "samples", cfg.Analysis.TrimCriteria)
				assert.Equal(t, 1.0, cfg.Analysis.TrimAmount)
				assert.False(t, cfg.Analysis.ExcludeZeroNumeric)
				assert.Equal(t, "csv", cfg.Output.Format)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"CELLPEAK_ANALYSIS_PEAK_WINDOW":          "3",
				"CELLPEAK_ANALYSIS_PEAK_THRESHOLD":       "2.5",
				"CELLPEAK_ANALYSIS_TIME_UNIT":            "ms",
				"CELLPEAK_ANALYSIS_FILTERS":              "100,above",
				"CELLPEAK_ANALYSIS_EXCLUDE_ZERO_NUMERIC": "true",
				"CELLPEAK_SERVER_READ_TIMEOUT":           "5s",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.Analysis.PeakWindow)
				require.NotNil(t, cfg.Analysis.PeakThreshold)
				assert.Equal(t, 2.5, *cfg.Analysis.PeakThreshold)
				assert.Equal(t, "ms", cfg.Analysis.TimeUnit)
				assert.True(t, cfg.Analysis.ExcludeZeroNumeric)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "file values",
			file: `
analysis:
  peak_window: 7
  time_unit: us
  trim_criteria: time
  trim_amount: 2.5
output:
  format: xlsx
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7, cfg.Analysis.PeakWindow)
				assert.Equal(t, "us", cfg.Analysis.TimeUnit)
				assert.Equal(t, "time", cfg.Analysis.TrimCriteria)
				assert.Equal(t, 2.5, cfg.Analysis.TrimAmount)
				assert.Equal(t, "xlsx", cfg.Output.Format)
				assert.Equal(t, "output", cfg.Output.Dir, "unset file keys keep defaults")
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"CELLPEAK_ANALYSIS_PEAK_WINDOW": "9"},
			file: "analysis:\n  peak_window: 7\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9, cfg.Analysis.PeakWindow)
			},
		},
		{
			name:        "unsupported unit",
			env:         map[string]string{"CELLPEAK_ANALYSIS_TIME_UNIT": "minutes"},
			wantErrType: apperrors.ErrTypeInvalidUnit,
		},
		{
			name:        "unsupported criteria",
			file:        "analysis:\n  trim_criteria: frames\n",
			wantErrType: apperrors.ErrTypeInvalidCriteria,
		},
		{
			name:        "bad filter direction",
			env:         map[string]string{"CELLPEAK_ANALYSIS_FILTERS": "1,sideways"},
			wantErrType: apperrors.ErrTypeInvalidCriteria,
		},
		{
			name:        "zero window",
			env:         map[string]string{"CELLPEAK_ANALYSIS_PEAK_WINDOW": "0"},
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "NaN threshold",
			env:         map[string]string{"CELLPEAK_ANALYSIS_PEAK_THRESHOLD": "NaN"},
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "infinite threshold",
			file:        "analysis:\n  peak_threshold: .inf\n",
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "negative trim",
			env:         map[string]string{"CELLPEAK_ANALYSIS_TRIM_AMOUNT": "-1"},
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "unknown output format",
			env:         map[string]string{"CELLPEAK_OUTPUT_FORMAT": "parquet"},
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "malformed env value",
			env:         map[string]string{"CELLPEAK_SERVER_PORT": "eighty"},
			wantErrType: apperrors.ErrTypeConfig,
		},
		{
			name:        "malformed yaml",
			file:        "analysis: [",
			wantErrType: apperrors.ErrTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErrType != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrType, apperrors.TypeOf(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestConditionerOptions(t *testing.T) {
	cfg := Default()
	cfg.Analysis.TimeUnit = "MS"
	cfg.Analysis.TrimCriteria = "Time"
	cfg.Analysis.TrimAmount = 2
	cfg.Analysis.Filters = "100,above;0,below"

	opts, err := cfg.ConditionerOptions()
	require.NoError(t, err)
	assert.Equal(t, domain.TimeUnitMilliseconds, opts.TimeUnit)
	assert.Equal(t, domain.TrimByTime, opts.TrimCriteria)
	assert.Equal(t, 2.0, opts.TrimAmount)
	assert.Equal(t, []domain.ValueFilter{
		{Threshold: 100, Direction: domain.FilterAbove},
		{Threshold: 0, Direction: domain.FilterBelow},
	}, opts.Filters)
}

func TestProcessorConfigCopiesThreshold(t *testing.T) {
	cfg := Default()
	threshold := 3.0
	cfg.Analysis.PeakThreshold = &threshold
	cfg.Analysis.PeakWindow = 4
	cfg.Processing.CellWorkers = 2

	pc := cfg.ProcessorConfig()
	assert.Equal(t, 4, pc.WindowOrder)
	assert.Equal(t, 2, pc.Workers)
	require.NotNil(t, pc.Threshold)
	*pc.Threshold = 10
	assert.Equal(t, 3.0, threshold)

	assert.Nil(t, Default().ProcessorConfig().Threshold)
}

func TestSummaryOptions(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.SummaryOptions().ExcludeZeroNumeric)
	cfg.Analysis.ExcludeZeroNumeric = true
	assert.True(t, cfg.SummaryOptions().ExcludeZeroNumeric)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsNonFiniteThreshold(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		cfg := Default()
		cfg.Analysis.PeakThreshold = &v
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	}

	cfg := Default()
	threshold := -0.5
	cfg.Analysis.PeakThreshold = &threshold
	assert.NoError(t, cfg.Validate())
}
