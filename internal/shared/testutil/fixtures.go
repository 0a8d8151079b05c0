package testutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cellpeak/pkg/contracts/domain"
)

// TransientSeries is a short recording with one large and one small
// transient: a strict maximum of 4 at index 4 and of 3 at index 8.
var TransientSeries = []float64{0, 3, 3, 3, 4, 0, 1, 2, 3, 2}

// Frame builds a frame with a "Time" column holding 0..n-1 and one column
// per cell, named in the given order. Without an order the cells are added
// in sorted name order.
func Frame(cells map[string][]float64, order ...string) *domain.Frame {
	order = cellOrder(cells, order)
	n := 0
	for _, v := range cells {
		n = len(v)
		break
	}
	timeCol := make([]float64, n)
	for i := range timeCol {
		timeCol[i] = float64(i)
	}

	f := &domain.Frame{Columns: []domain.FrameColumn{{Name: "Time", Values: timeCol}}}
	for _, name := range order {
		v, ok := cells[name]
		if !ok {
			panic(fmt.Sprintf("testutil: no values for cell %q", name))
		}
		f.Columns = append(f.Columns, domain.FrameColumn{Name: name, Values: append([]float64(nil), v...)})
	}
	return f
}

// Matrix builds a seconds-based matrix with samples at 0..n-1 s. Cell order
// defaults to sorted names as in Frame.
func Matrix(cells map[string][]float64, order ...string) *domain.TimeSeriesMatrix {
	order = cellOrder(cells, order)
	n := 0
	for _, v := range cells {
		n = len(v)
		break
	}
	times := make([]time.Time, n)
	for i := range times {
		times[i] = domain.TimeUnitSeconds.Instant(float64(i))
	}
	m, err := domain.NewTimeSeriesMatrix(domain.TimeUnitSeconds, times, order, cells)
	if err != nil {
		panic(fmt.Sprintf("testutil: invalid matrix: %v", err))
	}
	return m
}

func cellOrder(cells map[string][]float64, order []string) []string {
	if len(order) > 0 {
		return order
	}
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CSV renders a frame as CSV text with a header row.
func CSV(f *domain.Frame) string {
	var b strings.Builder
	b.WriteString(strings.Join(f.Names(), ","))
	b.WriteByte('\n')
	for r := 0; r < f.Rows(); r++ {
		for c, col := range f.Columns {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(col.Values[r], 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
