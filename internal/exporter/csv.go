package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes tables as CSV files
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Append    bool
	BOMPrefix bool // UTF-8 BOM so spreadsheet tools detect the encoding
}

// WriteTable writes a table to filePath, creating parent directories.
func (w *CSVWriter) WriteTable(filePath string, table Table, options WriteOptions) error {
	w.logger.Debug("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(table.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			file.Close()
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if err := EncodeCSV(file, table, !options.Append); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// EncodeCSV streams a table to out. The header row is written only when
// withHeader is set.
func EncodeCSV(out io.Writer, table Table, withHeader bool) error {
	writer := csv.NewWriter(out)

	if withHeader && len(table.Headers) > 0 {
		if err := writer.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	record := make([]string, 0, len(table.Headers))
	for i, row := range table.Records {
		record = record[:0]
		for _, v := range row {
			record = append(record, formatValue(v))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
