// Package activity detects calcium transients in a single cell's
// fluorescence series and reduces them to per-cell activity descriptors.
//
// FindPeaks reports the samples that are strict maxima of their
// [i-order, i+order] window and reach a threshold (the series mean when no
// threshold is given). Extract turns the resulting peaks into a
// domain.CellActivity. Both are pure functions of their inputs.
package activity
