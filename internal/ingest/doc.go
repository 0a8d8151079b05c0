// Package ingest reads recordings from CSV and XLSX files into domain.Frame
// values.
//
// Exported spreadsheets often carry title rows or notes above the table, so
// the header is located rather than assumed: it is the row with the most
// non-numeric cells. Below it, empty rows and columns are dropped and only
// columns whose every value is numeric are kept.
package ingest
