package exporter

import (
	"math"

	"cellpeak/pkg/contracts/domain"
)

// Table is a rectangular export: a header and rows of typed cells (nil,
// float64, int, bool or string).
type Table struct {
	Sheet   string
	Headers []string
	Records [][]interface{}
}

// FeaturesTable lays out a features table, one row per cell.
func FeaturesTable(features *domain.FeaturesTable) Table {
	cols := features.Columns()
	t := Table{Sheet: "features", Headers: make([]string, 0, len(cols)+1)}
	t.Headers = append(t.Headers, "cell_id")
	for _, c := range cols {
		t.Headers = append(t.Headers, c.Name)
	}

	for _, row := range features.Rows {
		record := make([]interface{}, 0, len(t.Headers))
		record = append(record, row.CellID)
		for _, c := range cols {
			switch c.Kind {
			case domain.FeatureNumeric:
				if v, ok := row.Numeric(c.Name); ok {
					if c.Name == domain.FeatureNrPeaks {
						record = append(record, int(v))
					} else {
						record = append(record, v)
					}
				} else {
					record = append(record, nil)
				}
			case domain.FeatureFlag:
				v, _ := row.Flag(c.Name)
				record = append(record, v)
			}
		}
		t.Records = append(t.Records, record)
	}
	return t
}

// SummaryTable lays out one summary as label/value rows.
func SummaryTable(s *domain.PopulationSummary) Table {
	name := s.Name
	if name == "" {
		name = "value"
	}
	t := Table{Sheet: "summary", Headers: []string{"feature", name}}
	for _, f := range s.Fields() {
		t.Records = append(t.Records, []interface{}{f.Name, summaryValue(f)})
	}
	return t
}

// ComparisonTable places several summaries side by side, one column per
// summary, rows labelled as in SummaryTable.
func ComparisonTable(summaries []*domain.PopulationSummary) Table {
	t := Table{Sheet: "populations", Headers: []string{"feature"}}
	if len(summaries) == 0 {
		return t
	}

	var labels []string
	index := make(map[string]int)
	values := make([]map[string]interface{}, len(summaries))
	for i, s := range summaries {
		t.Headers = append(t.Headers, s.Name)
		values[i] = make(map[string]interface{})
		for _, f := range s.Fields() {
			if _, seen := index[f.Name]; !seen {
				index[f.Name] = len(labels)
				labels = append(labels, f.Name)
			}
			values[i][f.Name] = summaryValue(f)
		}
	}

	for _, label := range labels {
		record := make([]interface{}, 0, len(summaries)+1)
		record = append(record, label)
		for i := range summaries {
			record = append(record, values[i][label])
		}
		t.Records = append(t.Records, record)
	}
	return t
}

func summaryValue(f domain.SummaryField) interface{} {
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return nil
	}
	if f.Name == domain.SummaryTotalInstances || f.Name == domain.SummaryTrueCountPrefix+domain.FeatureIsActive {
		return int(f.Value)
	}
	return f.Value
}
