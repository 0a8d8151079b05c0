package config

import (
	"time"

	"cellpeak/pkg/contracts"
)

// Application constants
const (
	AppName    = "cellpeak"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g.
	// CELLPEAK_ANALYSIS_PEAK_WINDOW.
	EnvPrefix = "CELLPEAK"

	// Analysis defaults
	DefaultPeakWindow   = 5
	DefaultTimeUnit     = "s"
	DefaultTrimCriteria = "samples"
	DefaultTrimAmount   = 1.0

	// Output layout
	DefaultOutputDir      = "output"
	DefaultOutputFormat   = "csv"
	RunDirLayout          = "20060102150405"
	FeaturesFileSuffix    = "_features"
	SummaryFileSuffix     = "_summary"
	ComparisonFileName    = "all_populations_summary.csv"
	DefaultLogsDir        = "logs"
	DefaultLogFile        = "logs/cellpeak.log"
	DefaultMaxUploadBytes = 32 << 20

	// Server timeouts
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second

	// Rate limiting
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20
)
