// Package config loads the cellpeak configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables with the CELLPEAK_ prefix:
//
//	CELLPEAK_ANALYSIS_PEAK_WINDOW=5
//	CELLPEAK_ANALYSIS_PEAK_THRESHOLD=1.5
//	CELLPEAK_ANALYSIS_TIME_UNIT=ms
//	CELLPEAK_ANALYSIS_TRIM_CRITERIA=time
//	CELLPEAK_ANALYSIS_FILTERS="100,above;0,below"
//	CELLPEAK_OUTPUT_FORMAT=xlsx
//	CELLPEAK_SERVER_PORT=8080
//
// The equivalent YAML file:
//
//	analysis:
//	  peak_window: 5
//	  peak_threshold: 1.5
//	  time_unit: ms
//	  trim_criteria: time
//	  trim_amount: 2
//	  filters: "100,above;0,below"
//	  exclude_zero_numeric: false
//	output:
//	  dir: output
//	  format: xlsx
//
// Load validates the result. Unknown time units, trim criteria and filter
// directions are rejected; nothing falls back to a default silently. The
// binaries call Load once and pass the derived values (ConditionerOptions,
// ProcessorConfig, SummaryOptions) into the components they build.
package config
