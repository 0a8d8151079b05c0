package activity

import "cellpeak/pkg/contracts/domain"

// Extract reduces a cell's peaks to its activity descriptors. peaks must be
// in time order, as FindPeaks returns them. The maximum peak is the one with
// the greatest value; ties go to the earliest.
func Extract(cellID string, peaks []domain.Peak) domain.CellActivity {
	activity := domain.CellActivity{CellID: cellID}
	if len(peaks) == 0 {
		return activity
	}

	first := peaks[0]
	strongest := peaks[0]
	for _, p := range peaks[1:] {
		if p.Time.Before(first.Time) {
			first = p
		}
		if p.Value > strongest.Value || (p.Value == strongest.Value && p.Time.Before(strongest.Time)) {
			strongest = p
		}
	}

	activity.FirstPeak = &first
	activity.MaxPeak = &strongest
	activity.IsActive = true
	activity.PeakCount = len(peaks)
	return activity
}
