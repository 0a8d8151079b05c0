package population

import (
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// SummaryOptions controls how numeric columns are averaged.
type SummaryOptions struct {
	// ExcludeZeroNumeric skips zero values when averaging numeric columns.
	ExcludeZeroNumeric bool
}

// Summarize reduces a features table to population statistics. Numeric
// columns are averaged over the cells that have a value; a column no cell
// contributes to has a NaN mean. Flag columns are counted.
func Summarize(table *domain.FeaturesTable, opts SummaryOptions) (*domain.PopulationSummary, error) {
	if table.Len() == 0 {
		return nil, apperrors.NewEmptyPopulationError()
	}

	total := table.Len()
	summary := &domain.PopulationSummary{
		TotalInstances:  total,
		Means:           make(map[string]float64),
		TrueCounts:      make(map[string]int),
		TruePercentages: make(map[string]float64),
	}

	for _, col := range table.Columns() {
		switch col.Kind {
		case domain.FeatureNumeric:
			values := make([]float64, 0, total)
			for _, row := range table.Rows {
				v, ok := row.Numeric(col.Name)
				if !ok || math.IsNaN(v) || (opts.ExcludeZeroNumeric && v == 0) {
					continue
				}
				values = append(values, v)
			}
			mean := math.NaN()
			if len(values) > 0 {
				mean = stat.Mean(values, nil)
			}
			summary.Means[col.Name] = mean
			summary.NumericColumns = append(summary.NumericColumns, col.Name)

		case domain.FeatureFlag:
			count := 0
			for _, row := range table.Rows {
				if v, ok := row.Flag(col.Name); ok && v {
					count++
				}
			}
			summary.TrueCounts[col.Name] = count
			summary.TruePercentages[col.Name] = float64(count) / float64(total) * 100
			summary.FlagColumns = append(summary.FlagColumns, col.Name)
		}
	}

	return summary, nil
}
