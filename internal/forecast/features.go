package forecast

import (
	"math"
	"time"
)

const (
	defaultLags = 24

	// maxLagFeatures caps the number of lag columns in the advanced matrix.
	maxLagFeatures = 47

	// advancedMinExtra is how many observations beyond the lag count the
	// advanced matrix needs before it degrades to plain lag features.
	advancedMinExtra = 10

	// diffWarmup rows at the start of the series lack the 24-step difference
	// and are excluded from the training matrix.
	diffWarmup = 24
)

var rollingWindows = []int{3, 6, 12, 24}

// featureMatrix is a supervised training frame: one row of predictors per
// retained observation, with the observation itself as the target.
type featureMatrix struct {
	X [][]float64
	y []float64

	// lags is the effective lag count after shrinking for short series.
	lags int

	// advanced marks matrices carrying rolling/time/trend columns in
	// addition to the lags.
	advanced bool
}

// buildTrainingMatrix constructs the supervised frame for a clean hourly
// series. When preferAdvanced is set and the series is long enough, the
// frame carries lag, rolling, difference, calendar, cyclical, and trend
// columns; otherwise it degrades to plain lag features.
func buildTrainingMatrix(times []time.Time, values []float64, lags int, preferAdvanced bool) featureMatrix {
	if !preferAdvanced || len(times) != len(values) {
		return lagMatrix(values, lags)
	}
	return advancedMatrix(times, values, lags)
}

func advancedMatrix(times []time.Time, values []float64, lags int) featureMatrix {
	n := len(values)
	if n < lags+advancedMinExtra {
		return lagMatrix(values, lags)
	}

	effLags := lags
	if effLags > maxLagFeatures {
		effLags = maxLagFeatures
	}

	start := effLags
	if start < diffWarmup {
		start = diffWarmup
	}
	if start >= n {
		return lagMatrix(values, lags)
	}

	fm := featureMatrix{lags: effLags, advanced: true}
	for i := start; i < n; i++ {
		fm.X = append(fm.X, advancedRow(times, values, i, effLags, n))
		fm.y = append(fm.y, values[i])
	}
	return fm
}

// advancedRow computes the feature vector at position i. The rolling and
// moving-average statistics include values[i] itself, matching the training
// frame the targets were fit against.
func advancedRow(times []time.Time, values []float64, i, effLags, n int) []float64 {
	row := make([]float64, 0, effLags+len(rollingWindows)*4+12)

	// Lag features, most recent first.
	for j := 1; j <= effLags; j++ {
		row = append(row, values[i-j])
	}

	// Rolling mean/std/min/max over short windows.
	for _, w := range rollingWindows {
		if n <= w {
			continue
		}
		mean, std, min, max := windowStats(values, i, w)
		row = append(row, mean, std, min, max)
	}

	// First-order and daily differences.
	row = append(row, values[i]-values[i-1])
	row = append(row, values[i]-values[i-diffWarmup])

	// Calendar features; day-of-week is Monday-based.
	t := times[i]
	hour := float64(t.Hour())
	dow := float64((int(t.Weekday()) + 6) % 7)
	row = append(row, hour, dow, float64(t.Day()), float64(int(t.Month())))

	// Cyclical encodings of hour-of-day and day-of-week.
	row = append(row,
		math.Sin(2*math.Pi*hour/24), math.Cos(2*math.Pi*hour/24),
		math.Sin(2*math.Pi*dow/7), math.Cos(2*math.Pi*dow/7),
	)

	// Linear trend index and 24-step moving average.
	row = append(row, float64(i), movingAverage(values, i, diffWarmup))

	return row
}

// lagMatrix builds the plain lag-feature frame. Series shorter than lags+1
// shrink the lag count to half the sample size, minimum 1.
func lagMatrix(values []float64, lags int) featureMatrix {
	n := len(values)
	if n < lags+1 {
		lags = n / 2
		if lags < 1 {
			lags = 1
		}
	}

	fm := featureMatrix{lags: lags}
	for i := lags; i < n; i++ {
		row := make([]float64, lags)
		copy(row, values[i-lags:i])
		fm.X = append(fm.X, row)
		fm.y = append(fm.y, values[i])
	}
	return fm
}

// lagRow is the prediction-time counterpart of lagMatrix rows: the last
// `lags` values, oldest first.
func lagRow(values []float64, lags int) []float64 {
	row := make([]float64, lags)
	copy(row, values[len(values)-lags:])
	return row
}

// windowStats returns mean, sample std, min, and max of the window of
// length w ending at index i (inclusive), shortened at the series start.
func windowStats(values []float64, i, w int) (mean, std, min, max float64) {
	lo := i - w + 1
	if lo < 0 {
		lo = 0
	}
	window := values[lo : i+1]

	min, max = window[0], window[0]
	var sum float64
	for _, v := range window {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	m := float64(len(window))
	mean = sum / m

	if len(window) < 2 {
		return mean, 0, min, max
	}
	var sq float64
	for _, v := range window {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / (m - 1))
	return mean, std, min, max
}

func movingAverage(values []float64, i, w int) float64 {
	lo := i - w + 1
	if lo < 0 {
		lo = 0
	}
	window := values[lo : i+1]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}
