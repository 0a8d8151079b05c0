package domain

import (
	"encoding/json"
	"time"
)

// Feature column names, as they appear in exported tables.
const (
	FeatureTimeToFirstPeak  = "time_to_first_peak"
	FeatureValueAtFirstPeak = "value_at_first_peak"
	FeatureTimeToMaxPeak    = "time_to_max_peak"
	FeatureValueAtMaxPeak   = "value_at_max_peak"
	FeatureIsActive         = "is_active"
	FeatureNrPeaks          = "nr_peaks"
)

// FeatureKind tells the population reducer how to aggregate a column.
type FeatureKind int

const (
	// FeatureNumeric columns are averaged.
	FeatureNumeric FeatureKind = iota
	// FeatureFlag columns are counted (true count and percentage).
	FeatureFlag
)

// FeatureColumn describes one column of the features table.
type FeatureColumn struct {
	Name string
	Kind FeatureKind
}

// FeatureColumns is the fixed column layout of a features table.
var FeatureColumns = []FeatureColumn{
	{Name: FeatureTimeToFirstPeak, Kind: FeatureNumeric},
	{Name: FeatureValueAtFirstPeak, Kind: FeatureNumeric},
	{Name: FeatureTimeToMaxPeak, Kind: FeatureNumeric},
	{Name: FeatureValueAtMaxPeak, Kind: FeatureNumeric},
	{Name: FeatureIsActive, Kind: FeatureFlag},
	{Name: FeatureNrPeaks, Kind: FeatureNumeric},
}

// Peak is one qualifying local maximum of a cell's series.
type Peak struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// CellActivity holds the activity descriptors of one cell.
//
// PeakCount == 0 implies IsActive is false and both peaks are nil. Otherwise
// FirstPeak is the earliest qualifying peak and MaxPeak the greatest one
// (earliest on ties); they may be the same sample.
type CellActivity struct {
	CellID    string
	FirstPeak *Peak
	MaxPeak   *Peak
	IsActive  bool
	PeakCount int
}

// EpochSeconds renders an instant the way feature tables store times:
// fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Numeric returns the value of a numeric feature column. ok is false when
// the value is absent (no peaks) or the column is not numeric.
func (c CellActivity) Numeric(column string) (value float64, ok bool) {
	switch column {
	case FeatureTimeToFirstPeak:
		if c.FirstPeak != nil {
			return EpochSeconds(c.FirstPeak.Time), true
		}
	case FeatureValueAtFirstPeak:
		if c.FirstPeak != nil {
			return c.FirstPeak.Value, true
		}
	case FeatureTimeToMaxPeak:
		if c.MaxPeak != nil {
			return EpochSeconds(c.MaxPeak.Time), true
		}
	case FeatureValueAtMaxPeak:
		if c.MaxPeak != nil {
			return c.MaxPeak.Value, true
		}
	case FeatureNrPeaks:
		return float64(c.PeakCount), true
	}
	return 0, false
}

// Flag returns the value of a flag feature column.
func (c CellActivity) Flag(column string) (value bool, ok bool) {
	if column == FeatureIsActive {
		return c.IsActive, true
	}
	return false, false
}

// MarshalJSON renders the activity as a flat features row with absent
// peak fields as null.
func (c CellActivity) MarshalJSON() ([]byte, error) {
	row := map[string]interface{}{"cell_id": c.CellID}
	for _, col := range FeatureColumns {
		switch col.Kind {
		case FeatureNumeric:
			if v, ok := c.Numeric(col.Name); ok {
				row[col.Name] = v
			} else {
				row[col.Name] = nil
			}
		case FeatureFlag:
			v, _ := c.Flag(col.Name)
			row[col.Name] = v
		}
	}
	return json.Marshal(row)
}

// FeaturesTable is the per-cell result of one run, one row per cell,
// sorted by cell identifier.
type FeaturesTable struct {
	Rows []CellActivity `json:"rows"`
}

// Len returns the number of rows.
func (t *FeaturesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Columns returns the column layout of the table.
func (t *FeaturesTable) Columns() []FeatureColumn {
	return FeatureColumns
}

// Row returns the row for a cell identifier.
func (t *FeaturesTable) Row(cellID string) (CellActivity, bool) {
	for _, r := range t.Rows {
		if r.CellID == cellID {
			return r, true
		}
	}
	return CellActivity{}, false
}
