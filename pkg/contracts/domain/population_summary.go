package domain

import (
	"encoding/json"
	"math"
)

// Summary field prefixes used in exported summary records.
const (
	SummaryMeanPrefix           = "mean "
	SummaryTrueCountPrefix      = "nr_true "
	SummaryTruePercentagePrefix = "percentage_true "
	SummaryTotalInstances       = "total_instances"
)

// PopulationSummary aggregates a features table into population statistics.
//
// Means is keyed by numeric column; a column with no contributing value
// has mean NaN. TruePercentages[c] == TrueCounts[c] / TotalInstances * 100.
type PopulationSummary struct {
	Name            string
	TotalInstances  int
	Means           map[string]float64
	TrueCounts      map[string]int
	TruePercentages map[string]float64

	// NumericColumns and FlagColumns keep the column order of the table the
	// summary was computed from.
	NumericColumns []string
	FlagColumns    []string
}

// SummaryField is one labelled value of a summary record.
type SummaryField struct {
	Name  string
	Value float64
}

// Fields returns the summary as an ordered record: means, true counts,
// true percentages, then total_instances.
func (s *PopulationSummary) Fields() []SummaryField {
	fields := make([]SummaryField, 0, len(s.NumericColumns)+2*len(s.FlagColumns)+1)
	for _, c := range s.NumericColumns {
		fields = append(fields, SummaryField{Name: SummaryMeanPrefix + c, Value: s.Means[c]})
	}
	for _, c := range s.FlagColumns {
		fields = append(fields, SummaryField{Name: SummaryTrueCountPrefix + c, Value: float64(s.TrueCounts[c])})
	}
	for _, c := range s.FlagColumns {
		fields = append(fields, SummaryField{Name: SummaryTruePercentagePrefix + c, Value: s.TruePercentages[c]})
	}
	fields = append(fields, SummaryField{Name: SummaryTotalInstances, Value: float64(s.TotalInstances)})
	return fields
}

// MarshalJSON renders the summary as a flat record. NaN means become null.
func (s *PopulationSummary) MarshalJSON() ([]byte, error) {
	record := make(map[string]interface{}, len(s.NumericColumns)+2*len(s.FlagColumns)+2)
	if s.Name != "" {
		record["name"] = s.Name
	}
	for _, f := range s.Fields() {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			record[f.Name] = nil
			continue
		}
		record[f.Name] = f.Value
	}
	record[SummaryTotalInstances] = s.TotalInstances
	return json.Marshal(record)
}
