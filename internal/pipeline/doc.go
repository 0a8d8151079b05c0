// Package pipeline runs the analysis end to end.
//
// Analyzer chains the core stages for one recording: condition the frame,
// detect peaks per cell, then summarize the population. Runner applies an
// Analyzer to a batch of recordings with a bounded number of inputs in
// flight, writes the per-input tables into a timestamped run directory and
// finishes with a cross-recording comparison table.
//
// A failing input never stops its siblings. Its error is kept on its
// Result and the input is left out of the comparison table.
package pipeline
