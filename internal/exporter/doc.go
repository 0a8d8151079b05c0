// Package exporter writes analysis results as CSV or XLSX tables.
//
// Three tables are produced:
//
//	features    one row per cell: cell_id plus the activity feature columns
//	summary     one labelled value per row (mean ..., nr_true ..., ...)
//	comparison  summary labels as rows, one column per recording
//
// The format is chosen from the file extension. Missing values (cells with
// no peaks, NaN means) are written as empty cells.
//
//	exp := exporter.New(logger)
//	err := exp.WriteFeatures("out/rec_01_features.csv", table)
package exporter
