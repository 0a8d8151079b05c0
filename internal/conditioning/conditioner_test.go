package conditioning

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cellpeak/internal/errors"
	"cellpeak/internal/shared/testutil"
	"cellpeak/pkg/contracts/domain"
)

func defaultOptions() Options {
	return Options{
		TimeUnit:     domain.TimeUnitSeconds,
		TrimCriteria: domain.TrimBySamples,
		TrimAmount:   1,
	}
}

func newConditioner(t *testing.T, opts Options) *Conditioner {
	t.Helper()
	c, err := NewConditioner(opts, nil)
	require.NoError(t, err)
	return c
}

func TestNewConditionerValidatesOptions(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		wantType apperrors.ErrorType
	}{
		{
			name:     "unsupported unit",
			mutate:   func(o *Options) { o.TimeUnit = "min" },
			wantType: apperrors.ErrTypeInvalidUnit,
		},
		{
			name:     "empty unit",
			mutate:   func(o *Options) { o.TimeUnit = "" },
			wantType: apperrors.ErrTypeInvalidUnit,
		},
		{
			name:     "unsupported criteria",
			mutate:   func(o *Options) { o.TrimCriteria = "frames" },
			wantType: apperrors.ErrTypeInvalidCriteria,
		},
		{
			name:     "negative trim",
			mutate:   func(o *Options) { o.TrimAmount = -1 },
			wantType: apperrors.ErrTypeInvalidInput,
		},
		{
			name:     "fractional sample trim",
			mutate:   func(o *Options) { o.TrimAmount = 1.5 },
			wantType: apperrors.ErrTypeInvalidInput,
		},
		{
			name: "bad filter direction",
			mutate: func(o *Options) {
				o.Filters = []domain.ValueFilter{{Threshold: 1, Direction: "sideways"}}
			},
			wantType: apperrors.ErrTypeInvalidCriteria,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			tt.mutate(&opts)
			c, err := NewConditioner(opts, nil)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}

	t.Run("fractional time trim is allowed", func(t *testing.T) {
		opts := defaultOptions()
		opts.TrimCriteria = domain.TrimByTime
		opts.TrimAmount = 1.5
		_, err := NewConditioner(opts, nil)
		assert.NoError(t, err)
	})
}

func TestConditionSampleTrim(t *testing.T) {
	opts := defaultOptions()
	opts.TrimAmount = 2
	c := newConditioner(t, opts)

	frame := testutil.Frame(map[string][]float64{"C0": {10, 11, 12, 13, 14}}, "C0")
	m, err := c.Condition(context.Background(), frame)
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	col, ok := m.Column("C0")
	require.True(t, ok)
	assert.Equal(t, []float64{12, 13, 14}, col)
	assert.Equal(t, domain.TimeUnitSeconds.Instant(2), m.Times[0])
	assert.Equal(t, domain.TimeUnitSeconds.Instant(4), m.Times[2])
}

func TestConditionTimeTrim(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		wantRows  int
		wantFirst time.Time
	}{
		{name: "two seconds", amount: 2, wantRows: 3, wantFirst: domain.TimeUnitSeconds.Instant(2)},
		{name: "one second", amount: 1, wantRows: 4, wantFirst: domain.TimeUnitSeconds.Instant(1)},
		{name: "zero keeps everything", amount: 0, wantRows: 5, wantFirst: domain.TimeUnitSeconds.Instant(0)},
		{name: "between samples", amount: 2.5, wantRows: 2, wantFirst: domain.TimeUnitSeconds.Instant(3)},
	}

	frame := testutil.Frame(map[string][]float64{"C0": {1, 2, 3, 4, 5}}, "C0")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.TrimCriteria = domain.TrimByTime
			opts.TrimAmount = tt.amount
			m, err := newConditioner(t, opts).Condition(context.Background(), frame)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, m.Len())
			assert.Equal(t, tt.wantFirst, m.Times[0])
		})
	}
}

func TestConditionTrimRemovesEverything(t *testing.T) {
	frame := testutil.Frame(map[string][]float64{"C0": {1, 2, 3}}, "C0")

	opts := defaultOptions()
	opts.TrimAmount = 3
	_, err := newConditioner(t, opts).Condition(context.Background(), frame)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidInput))

	opts.TrimCriteria = domain.TrimByTime
	opts.TrimAmount = 10
	_, err = newConditioner(t, opts).Condition(context.Background(), frame)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidInput))
}

func TestConditionMillisecondUnit(t *testing.T) {
	opts := defaultOptions()
	opts.TimeUnit = domain.TimeUnitMilliseconds
	opts.TrimAmount = 0
	frame := &domain.Frame{Columns: []domain.FrameColumn{
		{Name: "timestamp", Values: []float64{1, 2, 3}},
		{Name: "C0", Values: []float64{5, 6, 7}},
	}}

	m, err := newConditioner(t, opts).Condition(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 1_000_000, time.UTC), m.Times[0])
	assert.Equal(t, "1970-01-01T00:00:00.001Z", m.Times[0].Format(time.RFC3339Nano))
	assert.Equal(t, 3, m.Len())
}

func TestConditionColumnSelection(t *testing.T) {
	frame := &domain.Frame{Columns: []domain.FrameColumn{
		{Name: "FRAMES", Values: []float64{1, 2, 3}},
		{Name: "Elapsed TIME", Values: []float64{0, 1, 2}},
		{Name: "Cell 2", Values: []float64{4, 5, 6}},
		{Name: "Time Delta", Values: []float64{9, 9, 9}},
		{Name: "Cell 1", Values: []float64{1, 1, 1}},
		{Name: "subframe_id", Values: []float64{7, 7, 7}},
	}}

	m, err := newConditioner(t, defaultOptions()).Condition(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cell 2", "Time Delta", "Cell 1"}, m.Cells, "only the first time column becomes the axis")
	assert.Equal(t, domain.TimeUnitSeconds.Instant(1), m.Times[0])
}

func TestConditionMissingTimeColumn(t *testing.T) {
	frame := &domain.Frame{Columns: []domain.FrameColumn{
		{Name: "FRAMES", Values: []float64{1, 2}},
		{Name: "TME", Values: []float64{0, 1}},
		{Name: "CELL 1", Values: []float64{3, 4}},
	}}

	_, err := newConditioner(t, defaultOptions()).Condition(context.Background(), frame)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingTimeColumn))
}

func TestConditionInvalidFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame *domain.Frame
	}{
		{name: "nil frame", frame: nil},
		{name: "no columns", frame: &domain.Frame{}},
		{
			name: "only time",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, 1, 2}},
			}},
		},
		{
			name: "ragged columns",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, 1, 2}},
				{Name: "C0", Values: []float64{1, 2}},
			}},
		},
		{
			name: "duplicate times",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, 1, 1, 2}},
				{Name: "C0", Values: []float64{1, 2, 3, 4}},
			}},
		},
		{
			name: "decreasing times",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, 3, 2}},
				{Name: "C0", Values: []float64{1, 2, 3}},
			}},
		},
		{
			name: "missing time value",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, math.NaN(), 2}},
				{Name: "C0", Values: []float64{1, 2, 3}},
			}},
		},
		{
			name: "duplicate cell",
			frame: &domain.Frame{Columns: []domain.FrameColumn{
				{Name: "time", Values: []float64{0, 1, 2}},
				{Name: "C0", Values: []float64{1, 2, 3}},
				{Name: "C0", Values: []float64{1, 2, 3}},
			}},
		},
	}

	c := newConditioner(t, defaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Condition(context.Background(), tt.frame)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidInput), "got %v", err)
		})
	}
}

func TestConditionFilters(t *testing.T) {
	opts := defaultOptions()
	opts.TrimAmount = 0
	opts.Filters = []domain.ValueFilter{
		{Threshold: 100, Direction: domain.FilterAbove},
		{Threshold: 1, Direction: domain.FilterBelow},
	}

	frame := testutil.Frame(map[string][]float64{"C0": {0.5, 1, 50, 100, 150}}, "C0")
	m, err := newConditioner(t, opts).Condition(context.Background(), frame)
	require.NoError(t, err)

	col, _ := m.Column("C0")
	require.Len(t, col, 5)
	assert.True(t, math.IsNaN(col[0]))
	assert.Equal(t, 1.0, col[1])
	assert.Equal(t, 50.0, col[2])
	assert.Equal(t, 100.0, col[3])
	assert.True(t, math.IsNaN(col[4]))
}

func TestConditionDoesNotModifyFrame(t *testing.T) {
	opts := defaultOptions()
	opts.Filters = []domain.ValueFilter{{Threshold: 2, Direction: domain.FilterAbove}}

	frame := testutil.Frame(map[string][]float64{"C0": {1, 2, 3, 4}}, "C0")
	before := testutil.CSV(frame)

	_, err := newConditioner(t, opts).Condition(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, before, testutil.CSV(frame))
}

func TestConditionLogsShape(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	c, err := NewConditioner(defaultOptions(), logger)
	require.NoError(t, err)

	frame := testutil.Frame(map[string][]float64{"A": {1, 2, 3}, "B": {3, 2, 1}}, "A", "B")
	_, err = c.Condition(context.Background(), frame)
	require.NoError(t, err)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "frame conditioned")
	records := handler.GetRecordsByLevel(slog.LevelInfo)
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.EqualValues(t, 2, last.Attrs["rows"])
	assert.EqualValues(t, 2, last.Attrs["cells"])
	assert.EqualValues(t, 1, last.Attrs["dropped_rows"])
}

func TestConditionerOptionsCopy(t *testing.T) {
	opts := defaultOptions()
	opts.Filters = []domain.ValueFilter{{Threshold: 1, Direction: domain.FilterAbove}}
	c := newConditioner(t, opts)

	got := c.Options()
	got.Filters[0].Threshold = 99
	assert.Equal(t, 1.0, c.Options().Filters[0].Threshold)
}
