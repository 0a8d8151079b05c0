package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"cellpeak/internal/conditioning"
	apperrors "cellpeak/internal/errors"
	"cellpeak/internal/population"
	"cellpeak/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig holds the signal conditioning and peak detection settings
type AnalysisConfig struct {
	// PeakThreshold is the minimum peak value. Unset means each cell's mean.
	PeakThreshold      *float64 `yaml:"peak_threshold" envconfig:"PEAK_THRESHOLD"`
	PeakWindow         int      `yaml:"peak_window" envconfig:"PEAK_WINDOW" validate:"min=1"`
	TimeUnit           string   `yaml:"time_unit" envconfig:"TIME_UNIT"`
	TrimCriteria       string   `yaml:"trim_criteria" envconfig:"TRIM_CRITERIA"`
	TrimAmount         float64  `yaml:"trim_amount" envconfig:"TRIM_AMOUNT" validate:"min=0"`
	Filters            string   `yaml:"filters" envconfig:"FILTERS"`
	ExcludeZeroNumeric bool     `yaml:"exclude_zero_numeric" envconfig:"EXCLUDE_ZERO_NUMERIC"`
}

// OutputConfig controls where and how results are written
type OutputConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx"`
}

// ProcessingConfig bounds the worker pools
type ProcessingConfig struct {
	// FileWorkers is the number of inputs processed at once in a batch.
	FileWorkers int `yaml:"file_workers" envconfig:"FILE_WORKERS" validate:"min=0"`
	// CellWorkers is the per-input cell fan-out. Zero means one per CPU.
	CellWorkers int `yaml:"cell_workers" envconfig:"CELL_WORKERS" validate:"min=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then CELLPEAK_* environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("config file %s", path))
		}
		return apperrors.NewConfigError("failed to read config file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

// Validate checks struct constraints and the analysis enums. Enum errors keep
// their typed form (InvalidUnit, InvalidCriteria) so callers can tell them
// apart.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if t := c.Analysis.PeakThreshold; t != nil && (math.IsNaN(*t) || math.IsInf(*t, 0)) {
		return apperrors.NewConfigError("analysis.peak_threshold must be a finite number", nil).
			WithContext("peak_threshold", fmt.Sprint(*t))
	}
	if _, err := c.ConditionerOptions(); err != nil {
		return err
	}
	return nil
}

// ConditionerOptions converts the analysis settings into conditioning options
func (c *Config) ConditionerOptions() (conditioning.Options, error) {
	unit, err := domain.ParseTimeUnit(c.Analysis.TimeUnit)
	if err != nil {
		return conditioning.Options{}, apperrors.NewInvalidUnitError(c.Analysis.TimeUnit, err)
	}
	criteria, err := domain.ParseTrimCriteria(c.Analysis.TrimCriteria)
	if err != nil {
		return conditioning.Options{}, apperrors.NewInvalidCriteriaError("invalid trim criteria", err).
			WithContext("criteria", c.Analysis.TrimCriteria)
	}
	filters, err := domain.ParseFilters(c.Analysis.Filters)
	if err != nil {
		return conditioning.Options{}, apperrors.NewInvalidCriteriaError("invalid value filters", err).
			WithContext("filters", c.Analysis.Filters)
	}
	return conditioning.Options{
		TimeUnit:     unit,
		TrimCriteria: criteria,
		TrimAmount:   c.Analysis.TrimAmount,
		Filters:      filters,
	}, nil
}

// ProcessorConfig converts the analysis settings into processor parameters
func (c *Config) ProcessorConfig() population.ProcessorConfig {
	var threshold *float64
	if c.Analysis.PeakThreshold != nil {
		v := *c.Analysis.PeakThreshold
		threshold = &v
	}
	return population.ProcessorConfig{
		WindowOrder: c.Analysis.PeakWindow,
		Threshold:   threshold,
		Workers:     c.Processing.CellWorkers,
	}
}

// SummaryOptions converts the analysis settings into summary options
func (c *Config) SummaryOptions() population.SummaryOptions {
	return population.SummaryOptions{ExcludeZeroNumeric: c.Analysis.ExcludeZeroNumeric}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			PeakWindow:   DefaultPeakWindow,
			TimeUnit:     DefaultTimeUnit,
			TrimCriteria: DefaultTrimCriteria,
			TrimAmount:   DefaultTrimAmount,
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Format: DefaultOutputFormat,
		},
		Processing: ProcessingConfig{
			FileWorkers: 2,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RequestTimeout:  DefaultRequestTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
