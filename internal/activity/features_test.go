package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellpeak/pkg/contracts/domain"
)

func TestExtract(t *testing.T) {
	times := axis(6)

	t.Run("no peaks", func(t *testing.T) {
		got := Extract("C0", nil)
		assert.Equal(t, domain.CellActivity{CellID: "C0"}, got)
		assert.False(t, got.IsActive)
		assert.Nil(t, got.FirstPeak)
		assert.Nil(t, got.MaxPeak)
	})

	t.Run("single peak is both first and max", func(t *testing.T) {
		peaks := []domain.Peak{{Index: 4, Time: times[4], Value: 4}}
		got := Extract("C0", peaks)
		require.NotNil(t, got.FirstPeak)
		require.NotNil(t, got.MaxPeak)
		assert.True(t, got.IsActive)
		assert.Equal(t, 1, got.PeakCount)
		assert.Equal(t, 4.0, got.FirstPeak.Value)
		assert.Equal(t, *got.FirstPeak, *got.MaxPeak)
	})

	t.Run("max differs from first", func(t *testing.T) {
		peaks := []domain.Peak{
			{Index: 1, Time: times[1], Value: 2},
			{Index: 3, Time: times[3], Value: 9},
			{Index: 5, Time: times[5], Value: 4},
		}
		got := Extract("C1", peaks)
		assert.Equal(t, 3, got.PeakCount)
		assert.Equal(t, 1, got.FirstPeak.Index)
		assert.Equal(t, 3, got.MaxPeak.Index)
	})

	t.Run("ties go to the earliest peak", func(t *testing.T) {
		peaks := []domain.Peak{
			{Index: 0, Time: times[0], Value: 1},
			{Index: 2, Time: times[2], Value: 5},
			{Index: 4, Time: times[4], Value: 5},
		}
		got := Extract("C2", peaks)
		assert.Equal(t, 2, got.MaxPeak.Index)
	})

	t.Run("idempotent", func(t *testing.T) {
		peaks := []domain.Peak{{Index: 1, Time: times[1], Value: 3}, {Index: 4, Time: times[4], Value: 3}}
		assert.Equal(t, Extract("C3", peaks), Extract("C3", peaks))
	})
}

func TestExtractFromDetectedPeaks(t *testing.T) {
	peaks, err := FindPeaks(axis(len(transient)), transient, 3, ptr(4))
	require.NoError(t, err)
	got := Extract("cell", peaks)
	assert.True(t, got.IsActive)
	assert.Equal(t, 1, got.PeakCount)
	assert.Equal(t, 4.0, got.FirstPeak.Value)
	assert.Equal(t, 4.0, got.MaxPeak.Value)

	peaks, err = FindPeaks(axis(len(transient)), transient, 3, ptr(5))
	require.NoError(t, err)
	got = Extract("cell", peaks)
	assert.False(t, got.IsActive)
	assert.Zero(t, got.PeakCount)
}
