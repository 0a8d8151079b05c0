package population

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cellpeak/internal/errors"
	"cellpeak/internal/shared/testutil"
	"cellpeak/pkg/contracts/domain"
)

func activeRow(id string, value float64, count int) domain.CellActivity {
	p := &domain.Peak{Index: 1, Time: domain.TimeUnitSeconds.Instant(1), Value: value}
	return domain.CellActivity{CellID: id, FirstPeak: p, MaxPeak: p, IsActive: true, PeakCount: count}
}

func TestSummarizeFlags(t *testing.T) {
	table := &domain.FeaturesTable{Rows: []domain.CellActivity{
		activeRow("A", 4, 1),
		{CellID: "B"},
		activeRow("C", 2, 3),
	}}

	s, err := Summarize(table, SummaryOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, s.TotalInstances)
	assert.Equal(t, 2, s.TrueCounts[domain.FeatureIsActive])
	assert.InDelta(t, 66.67, s.TruePercentages[domain.FeatureIsActive], 0.01)

	falsePct := float64(s.TotalInstances-s.TrueCounts[domain.FeatureIsActive]) / float64(s.TotalInstances) * 100
	assert.InDelta(t, 100, s.TruePercentages[domain.FeatureIsActive]+falsePct, 1e-9)
}

func TestSummarizeMeans(t *testing.T) {
	table := &domain.FeaturesTable{Rows: []domain.CellActivity{
		activeRow("A", 4, 1),
		{CellID: "B"},
		activeRow("C", 2, 3),
	}}

	t.Run("absent values are skipped", func(t *testing.T) {
		s, err := Summarize(table, SummaryOptions{})
		require.NoError(t, err)
		assert.InDelta(t, 3, s.Means[domain.FeatureValueAtMaxPeak], 1e-9)
		assert.InDelta(t, 1, s.Means[domain.FeatureTimeToFirstPeak], 1e-9)
		assert.InDelta(t, 4.0/3, s.Means[domain.FeatureNrPeaks], 1e-9, "inactive cells count zero peaks")
	})

	t.Run("zeros excluded on request", func(t *testing.T) {
		s, err := Summarize(table, SummaryOptions{ExcludeZeroNumeric: true})
		require.NoError(t, err)
		assert.InDelta(t, 2, s.Means[domain.FeatureNrPeaks], 1e-9)
	})
}

func TestSummarizeNoContributingValues(t *testing.T) {
	table := &domain.FeaturesTable{Rows: []domain.CellActivity{{CellID: "A"}, {CellID: "B"}}}

	s, err := Summarize(table, SummaryOptions{})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Means[domain.FeatureValueAtFirstPeak]))
	assert.Equal(t, 0.0, s.Means[domain.FeatureNrPeaks])
	assert.Equal(t, 0.0, s.TruePercentages[domain.FeatureIsActive])

	s, err = Summarize(table, SummaryOptions{ExcludeZeroNumeric: true})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Means[domain.FeatureNrPeaks]))
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(&domain.FeaturesTable{}, SummaryOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyPopulation))

	_, err = Summarize(nil, SummaryOptions{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyPopulation))
}

func TestSummarizeColumnOrder(t *testing.T) {
	s, err := Summarize(&domain.FeaturesTable{Rows: []domain.CellActivity{activeRow("A", 1, 1)}}, SummaryOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		domain.FeatureTimeToFirstPeak,
		domain.FeatureValueAtFirstPeak,
		domain.FeatureTimeToMaxPeak,
		domain.FeatureValueAtMaxPeak,
		domain.FeatureNrPeaks,
	}, s.NumericColumns)
	assert.Equal(t, []string{domain.FeatureIsActive}, s.FlagColumns)
}

func TestRunThenSummarize(t *testing.T) {
	flat := make([]float64, len(testutil.TransientSeries))
	m := testutil.Matrix(map[string][]float64{
		"A": testutil.TransientSeries,
		"B": flat,
		"C": testutil.TransientSeries,
	}, "C", "B", "A")

	table, err := newProcessor(t, ProcessorConfig{WindowOrder: 3, Threshold: ptr(2)}).Run(context.Background(), m)
	require.NoError(t, err)

	s, err := Summarize(table, SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalInstances)
	assert.Equal(t, 2, s.TrueCounts[domain.FeatureIsActive])
	assert.InDelta(t, 4, s.Means[domain.FeatureValueAtMaxPeak], 1e-9)
	assert.InDelta(t, 4, s.Means[domain.FeatureTimeToMaxPeak], 1e-9)
}
