package domain

import (
	"errors"
	"fmt"
	"time"
)

// Frame is a typed tabular input: named numeric columns of equal length.
// Missing cells are NaN. Ingest produces frames; the conditioner turns them
// into a TimeSeriesMatrix.
type Frame struct {
	Columns []FrameColumn `json:"columns"`
}

// FrameColumn is one named column of a Frame.
type FrameColumn struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows returns the number of rows, taken from the first column.
func (f *Frame) Rows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// Errors returned by TimeSeriesMatrix.Validate.
var (
	ErrEmptyMatrix     = errors.New("matrix must have at least one row and one cell column")
	ErrUnorderedTime   = errors.New("time axis must be strictly increasing")
	ErrColumnLength    = errors.New("cell column length does not match the time axis")
	ErrDuplicateCell   = errors.New("duplicate cell identifier")
	ErrMissingColumn   = errors.New("cell has no sample column")
	ErrUnsupportedUnit = errors.New("unsupported time unit")
)

// TimeSeriesMatrix is the normalized input of peak processing: a strictly
// increasing time axis and one aligned sample column per cell. Cleared
// samples are NaN. A matrix is not modified after construction.
type TimeSeriesMatrix struct {
	Unit   TimeUnit             `json:"unit"`
	Times  []time.Time          `json:"times"`
	Cells  []string             `json:"cells"`
	Values map[string][]float64 `json:"values"`
}

// NewTimeSeriesMatrix builds a matrix from copies of the given slices and
// validates it.
func NewTimeSeriesMatrix(unit TimeUnit, times []time.Time, cells []string, values map[string][]float64) (*TimeSeriesMatrix, error) {
	m := &TimeSeriesMatrix{
		Unit:   unit,
		Times:  append([]time.Time(nil), times...),
		Cells:  append([]string(nil), cells...),
		Values: make(map[string][]float64, len(values)),
	}
	for id, col := range values {
		m.Values[id] = append([]float64(nil), col...)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the matrix invariants.
func (m *TimeSeriesMatrix) Validate() error {
	if m == nil || len(m.Times) == 0 || len(m.Cells) == 0 {
		return ErrEmptyMatrix
	}
	if !m.Unit.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedUnit, m.Unit)
	}
	for i := 1; i < len(m.Times); i++ {
		if !m.Times[i].After(m.Times[i-1]) {
			return fmt.Errorf("%w: row %d (%s) does not follow row %d (%s)",
				ErrUnorderedTime, i, m.Times[i].Format(time.RFC3339Nano), i-1, m.Times[i-1].Format(time.RFC3339Nano))
		}
	}
	seen := make(map[string]struct{}, len(m.Cells))
	for _, id := range m.Cells {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCell, id)
		}
		seen[id] = struct{}{}
		col, ok := m.Values[id]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, id)
		}
		if len(col) != len(m.Times) {
			return fmt.Errorf("%w: cell %q has %d samples, time axis has %d",
				ErrColumnLength, id, len(col), len(m.Times))
		}
	}
	return nil
}

// Len returns the number of time samples.
func (m *TimeSeriesMatrix) Len() int {
	return len(m.Times)
}

// CellCount returns the number of cell columns.
func (m *TimeSeriesMatrix) CellCount() int {
	return len(m.Cells)
}

// Column returns the samples for a cell. The slice must not be modified.
func (m *TimeSeriesMatrix) Column(cellID string) ([]float64, bool) {
	col, ok := m.Values[cellID]
	return col, ok
}
