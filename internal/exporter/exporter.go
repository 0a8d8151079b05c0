package exporter

import (
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// Exporter writes result tables, picking the format from the file extension.
type Exporter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// New creates an exporter.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		csv:    NewCSVWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		logger: logger,
	}
}

// WriteFeatures writes a features table.
func (e *Exporter) WriteFeatures(path string, features *domain.FeaturesTable) error {
	return e.write(path, FeaturesTable(features))
}

// WriteSummary writes one population summary.
func (e *Exporter) WriteSummary(path string, summary *domain.PopulationSummary) error {
	if summary == nil {
		return apperrors.NewInvalidInputError("summary is nil", nil)
	}
	return e.write(path, SummaryTable(summary))
}

// WriteComparison writes several summaries side by side.
func (e *Exporter) WriteComparison(path string, summaries []*domain.PopulationSummary) error {
	if len(summaries) == 0 {
		return apperrors.NewEmptyPopulationError()
	}
	return e.write(path, ComparisonTable(summaries))
}

func (e *Exporter) write(path string, table Table) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = e.csv.WriteTable(path, table, WriteOptions{})
	case ".xlsx":
		err = e.xlsx.WriteTable(path, table)
	default:
		return apperrors.NewParsingError("unsupported output format: "+filepath.Ext(path), nil).
			WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to write "+path, err)
	}

	e.logger.Info("table written",
		slog.String("path", path),
		slog.Int("rows", len(table.Records)))
	return nil
}
