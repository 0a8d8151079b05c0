package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// Supported file formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// FormatOf returns the format for a file name, or "" when unsupported.
func FormatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	}
	return ""
}

// Reader loads tabular recordings
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("component", "ingest"))}
}

// ReadFile reads a .csv or .xlsx file
func (r *Reader) ReadFile(ctx context.Context, path string) (*domain.Frame, error) {
	format := FormatOf(path)
	if format == "" {
		return nil, apperrors.NewParsingError(fmt.Sprintf("file format not supported: %s", path), nil).
			WithContext("path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	frame, err := r.Read(ctx, f, format)
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "file loaded",
		slog.String("path", path),
		slog.Int("rows", frame.Rows()),
		slog.Int("columns", len(frame.Columns)),
	)
	return frame, nil
}

// Read parses a recording in the given format from src
func (r *Reader) Read(ctx context.Context, src io.Reader, format string) (*domain.Frame, error) {
	var rows [][]string
	var err error
	switch format {
	case FormatCSV:
		rows, err = readCSVRows(src)
	case FormatXLSX:
		rows, err = readXLSXRows(src)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("file format not supported: %q", format), nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s data", format), err)
	}

	frame, dropped, err := BuildFrame(rows)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		r.logger.DebugContext(ctx, "dropped non-numeric columns", slog.Any("columns", dropped))
	}
	return frame, nil
}

func readCSVRows(src io.Reader) ([][]string, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSXRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// BuildFrame turns raw cell text into a frame. It returns the names of the
// columns dropped for holding non-numeric values.
func BuildFrame(rows [][]string) (*domain.Frame, []string, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(rows) == 0 || width == 0 {
		return nil, nil, apperrors.NewParsingError("no data found", nil)
	}

	header := findHeader(rows)
	body := rows[header+1:]

	var kept []int
	for c := 0; c < width; c++ {
		if !columnEmpty(rows[header:], c) {
			kept = append(kept, c)
		}
	}

	var dataRows [][]string
	for _, row := range body {
		if !rowEmpty(row) {
			dataRows = append(dataRows, row)
		}
	}
	if len(dataRows) == 0 {
		return nil, nil, apperrors.NewParsingError("no data rows below the header", nil)
	}

	frame := &domain.Frame{}
	var dropped []string
	for _, c := range kept {
		name := strings.TrimSpace(cell(rows[header], c))
		if name == "" {
			name = fmt.Sprintf("column_%d", c)
		}
		values, ok := parseColumn(dataRows, c)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		frame.Columns = append(frame.Columns, domain.FrameColumn{Name: name, Values: values})
	}
	if len(frame.Columns) == 0 {
		return nil, dropped, apperrors.NewParsingError("no numeric columns found", nil).
			WithContext("dropped", dropped)
	}
	return frame, dropped, nil
}

// findHeader returns the index of the row with the most non-numeric,
// non-empty cells. Ties go to the earliest row.
func findHeader(rows [][]string) int {
	best, bestCount := 0, -1
	for i, row := range rows {
		count := 0
		for _, v := range row {
			if v = strings.TrimSpace(v); v != "" && !isNumeric(v) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	return best
}

// parseColumn converts column c of rows to floats. Empty cells become NaN;
// ok is false when any cell is not a number.
func parseColumn(rows [][]string, c int) ([]float64, bool) {
	values := make([]float64, len(rows))
	for i, row := range rows {
		v := strings.TrimSpace(cell(row, c))
		if v == "" {
			values[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		values[i] = f
	}
	return values, true
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func cell(row []string, c int) string {
	if c < len(row) {
		return row[c]
	}
	return ""
}

func rowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// columnEmpty reports whether column c has no value below the header row.
func columnEmpty(rows [][]string, c int) bool {
	for _, row := range rows[1:] {
		if strings.TrimSpace(cell(row, c)) != "" {
			return false
		}
	}
	return true
}
