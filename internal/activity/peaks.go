package activity

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// Detector bundles the peak detection parameters used for every cell of a
// population.
type Detector struct {
	// Order is the half-width of the comparison window in samples.
	Order int
	// Threshold is the minimum peak value. Nil means the mean of the series.
	Threshold *float64
}

// Detect runs FindPeaks with the detector's parameters.
func (d Detector) Detect(times []time.Time, values []float64) ([]domain.Peak, error) {
	return FindPeaks(times, values, d.Order, d.Threshold)
}

// FindPeaks returns the peaks of values in time order.
//
// A sample is a peak when it is strictly greater than every other present
// sample within order positions on either side (the window is clipped at the
// series ends) and its value is at least the threshold. NaN samples are
// absent: they are never peaks and are skipped in comparisons. A sample
// with no present neighbour in its window is not a peak.
func FindPeaks(times []time.Time, values []float64, order int, threshold *float64) ([]domain.Peak, error) {
	if order < 1 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("peak window order must be at least 1, got %d", order), nil).
			WithContext("order", order)
	}
	if len(times) != len(values) {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("time axis has %d samples, values have %d", len(times), len(values)), nil)
	}

	limit, ok := resolveThreshold(values, threshold)
	if !ok {
		return []domain.Peak{}, nil
	}

	peaks := make([]domain.Peak, 0)
	for i, v := range values {
		if math.IsNaN(v) || v < limit {
			continue
		}
		if isWindowMaximum(values, i, order) {
			peaks = append(peaks, domain.Peak{Index: i, Time: times[i], Value: v})
		}
	}
	return peaks, nil
}

// resolveThreshold returns the explicit threshold or the mean of the present
// samples. ok is false when there is nothing to compare against.
func resolveThreshold(values []float64, threshold *float64) (float64, bool) {
	if threshold != nil {
		return *threshold, !math.IsNaN(*threshold)
	}
	present := presentValues(values)
	if len(present) == 0 {
		return 0, false
	}
	return stat.Mean(present, nil), true
}

func presentValues(values []float64) []float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	return present
}

func isWindowMaximum(values []float64, i, order int) bool {
	lo := i - order
	if lo < 0 {
		lo = 0
	}
	hi := i + order
	if hi > len(values)-1 {
		hi = len(values) - 1
	}

	v := values[i]
	neighbours := 0
	for j := lo; j <= hi; j++ {
		if j == i || math.IsNaN(values[j]) {
			continue
		}
		if values[j] >= v {
			return false
		}
		neighbours++
	}
	return neighbours > 0
}
