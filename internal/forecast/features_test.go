package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/tj/assert"
)

func hourly(n int, f func(i int) float64) ([]time.Time, []float64) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = base.Add(time.Duration(i) * time.Hour)
		values[i] = f(i)
	}
	return times, values
}

func TestLagMatrixShrinksForShortSeries(t *testing.T) {
	_, values := hourly(10, func(i int) float64 { return float64(i) })

	fm := lagMatrix(values, 24)

	assert.Equal(t, 5, fm.lags)
	assert.Len(t, fm.X, 5)
	assert.Len(t, fm.y, 5)
	// First row: values[0:5] oldest first, target values[5].
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, fm.X[0])
	assert.Equal(t, 5.0, fm.y[0])
}

func TestLagMatrixMinimumOneLag(t *testing.T) {
	fm := lagMatrix([]float64{1, 2}, 24)
	assert.Equal(t, 1, fm.lags)
	assert.Len(t, fm.X, 1)
}

func TestAdvancedMatrixShape(t *testing.T) {
	times, values := hourly(40, func(i int) float64 { return math.Sin(float64(i) / 4) })

	fm := buildTrainingMatrix(times, values, 24, true)

	assert.True(t, fm.advanced)
	assert.Equal(t, 24, fm.lags)
	// Warmup rows (max of lags and the 24-step difference) are dropped.
	assert.Len(t, fm.X, 16)
	// 24 lags + 4 windows * 4 stats + 2 diffs + 4 calendar + 4 cyclical + trend + ma.
	assert.Len(t, fm.X[0], 52)
}

func TestAdvancedMatrixFallsBackWhenShort(t *testing.T) {
	times, values := hourly(30, func(i int) float64 { return float64(i) })

	fm := buildTrainingMatrix(times, values, 24, true)

	assert.False(t, fm.advanced)
	assert.Equal(t, 24, fm.lags)
}

func TestAdvancedRowContents(t *testing.T) {
	times, values := hourly(40, func(i int) float64 { return float64(i) })

	fm := buildTrainingMatrix(times, values, 24, true)
	row := fm.X[0] // computed at series position 24

	// Lags are most recent first: values[23], values[22], ...
	assert.Equal(t, 23.0, row[0])
	assert.Equal(t, 0.0, row[23])

	// Rolling mean over window 3 at position 24: mean(22, 23, 24).
	assert.InEpsilon(t, 23.0, row[24], 1e-9)

	// diff_1 and diff_24 of a unit ramp.
	assert.InEpsilon(t, 1.0, row[40], 1e-9)
	assert.InEpsilon(t, 24.0, row[41], 1e-9)

	// Trend index is the position within the series.
	assert.Equal(t, 24.0, row[50])
}

func TestWindowStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 10}

	mean, std, min, max := windowStats(values, 4, 3)

	assert.InEpsilon(t, 17.0/3.0, mean, 1e-9)
	assert.Equal(t, 3.0, min)
	assert.Equal(t, 10.0, max)
	assert.True(t, std > 0)
}
