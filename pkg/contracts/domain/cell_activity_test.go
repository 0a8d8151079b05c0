package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellActivityNumeric(t *testing.T) {
	first := &Peak{Index: 2, Time: TimeUnitSeconds.Instant(2), Value: 3}
	maxPeak := &Peak{Index: 4, Time: TimeUnitSeconds.Instant(4.5), Value: 7}
	active := CellActivity{CellID: "C0", FirstPeak: first, MaxPeak: maxPeak, IsActive: true, PeakCount: 2}

	tests := []struct {
		column string
		want   float64
		ok     bool
	}{
		{FeatureTimeToFirstPeak, 2, true},
		{FeatureValueAtFirstPeak, 3, true},
		{FeatureTimeToMaxPeak, 4.5, true},
		{FeatureValueAtMaxPeak, 7, true},
		{FeatureNrPeaks, 2, true},
		{FeatureIsActive, 0, false},
		{"unknown", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, ok := active.Numeric(tt.column)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	inactive := CellActivity{CellID: "C1"}
	_, ok := inactive.Numeric(FeatureValueAtMaxPeak)
	assert.False(t, ok)
	v, ok := inactive.Numeric(FeatureNrPeaks)
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestCellActivityFlag(t *testing.T) {
	v, ok := CellActivity{IsActive: true}.Flag(FeatureIsActive)
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = CellActivity{}.Flag(FeatureNrPeaks)
	assert.False(t, ok)
}

func TestCellActivityMarshalJSON(t *testing.T) {
	peak := &Peak{Index: 1, Time: TimeUnitMilliseconds.Instant(1500), Value: 4}
	data, err := json.Marshal(CellActivity{CellID: "C0", FirstPeak: peak, MaxPeak: peak, IsActive: true, PeakCount: 1})
	require.NoError(t, err)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &row))
	assert.Equal(t, "C0", row["cell_id"])
	assert.Equal(t, 1.5, row[FeatureTimeToFirstPeak])
	assert.Equal(t, 4.0, row[FeatureValueAtMaxPeak])
	assert.Equal(t, true, row[FeatureIsActive])
	assert.Equal(t, 1.0, row[FeatureNrPeaks])

	data, err = json.Marshal(CellActivity{CellID: "C1"})
	require.NoError(t, err)
	row = nil
	require.NoError(t, json.Unmarshal(data, &row))
	assert.Nil(t, row[FeatureTimeToFirstPeak])
	assert.Contains(t, row, FeatureTimeToFirstPeak)
	assert.Equal(t, false, row[FeatureIsActive])
}

func TestFeaturesTable(t *testing.T) {
	var empty *FeaturesTable
	assert.Equal(t, 0, empty.Len())

	table := &FeaturesTable{Rows: []CellActivity{{CellID: "A"}, {CellID: "B", PeakCount: 3, IsActive: true}}}
	assert.Equal(t, 2, table.Len())
	assert.Len(t, table.Columns(), 6)

	row, ok := table.Row("B")
	require.True(t, ok)
	assert.Equal(t, 3, row.PeakCount)

	_, ok = table.Row("Z")
	assert.False(t, ok)
}
