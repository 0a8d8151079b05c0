// Package files discovers recording files for batch analysis.
//
// Discovery lists the .csv and .xlsx files of a directory in name order,
// skipping spreadsheet lock files (~$name.xlsx) and subdirectories:
//
//	inputs, err := files.NewDiscovery(baseDir).FindInputs("recordings")
package files
