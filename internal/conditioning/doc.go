// Package conditioning turns a raw recording frame into a validated
// domain.TimeSeriesMatrix.
//
// A Conditioner picks the time axis, drops frame-counter columns, trims the
// warm-up region and clears samples that fall outside the configured value
// filters. Options are validated once, when the Conditioner is built.
package conditioning
