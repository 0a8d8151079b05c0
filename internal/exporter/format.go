package exporter

import (
	"math"
	"strconv"
)

// formatFloat renders a float at full precision; NaN and infinities are
// missing values and render empty.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatValue renders one table cell for CSV output
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(val)
	case int:
		return strconv.Itoa(val)
	case bool:
		return formatBool(val)
	case string:
		return val
	}
	return ""
}
