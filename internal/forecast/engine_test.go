package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/tj/assert"

	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

func hourlySeries(start time.Time, n int, v timeseries.Variable, f func(i int) float64) timeseries.Series {
	s := make(timeseries.Series, n)
	for i := 0; i < n; i++ {
		s[i] = timeseries.Point{Time: start.Add(time.Duration(i) * time.Hour)}
		s[i].SetValue(v, timeseries.Float(f(i)))
	}
	return s
}

func TestModelForecastPassthroughBelowMinimum(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := hourlySeries(start.Add(-47*time.Hour), 47, timeseries.Temperature2m, func(i int) float64 { return 20 })
	api := hourlySeries(start, 24, timeseries.Temperature2m, func(i int) float64 { return float64(i) })

	got := NewEngine().ModelForecast(hist, api, timeseries.Temperature2m)

	want := api.Column(timeseries.Temperature2m)
	assert.Equal(t, want.Times, got.Times)
	assert.Equal(t, want.Values, got.Values)
}

func TestModelForecastCoversForecastHorizon(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := hourlySeries(start.Add(-72*time.Hour), 72, timeseries.Temperature2m, func(i int) float64 {
		return 20 + 5*math.Sin(2*math.Pi*float64(i)/24)
	})
	api := hourlySeries(start, 12, timeseries.Temperature2m, func(i int) float64 { return 21 })

	got := NewEngine().ModelForecast(hist, api, timeseries.Temperature2m)

	assert.Equal(t, api.Times(), got.Times)
	assert.Len(t, got.Values, 12)
	for _, v := range got.Values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		// Predictions of a bounded periodic signal stay in a sane range.
		assert.True(t, v > 0 && v < 40)
	}
}

func TestBlendDegradesToAPIOnFailure(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	api := column(start, 1, 2, 3)

	got := NewEngine().Blend(timeseries.Column{}, api, timeseries.WindSpeed10m)

	assert.Equal(t, api.Values, got.Values)
}

func TestTrainDeterministicForFixedSeed(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := hourlySeries(start, 80, timeseries.WindSpeed10m, func(i int) float64 {
		return 3 + math.Sin(float64(i)/3) + 0.1*float64(i%7)
	})
	col := hist.Column(timeseries.WindSpeed10m)

	m1, err := Train(col, defaultLags, defaultSeed)
	assert.NoError(t, err)
	m2, err := Train(col, defaultLags, defaultSeed)
	assert.NoError(t, err)

	f1 := m1.Forecast(col, 6)
	f2 := m2.Forecast(col, 6)
	assert.Equal(t, f1, f2)
}

func TestTrainFailsWithoutData(t *testing.T) {
	_, err := Train(timeseries.Column{}, defaultLags, defaultSeed)
	assert.Error(t, err)
}

func TestForecastRepeatsLastValueWhenWindowTooShort(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := hourlySeries(start, 60, timeseries.Temperature2m, func(i int) float64 { return float64(i % 5) })
	col := hist.Column(timeseries.Temperature2m)

	m, err := Train(col, defaultLags, defaultSeed)
	assert.NoError(t, err)

	short := timeseries.Column{
		Times:  col.Times[:3],
		Values: col.Values[:3],
	}
	got := m.Forecast(short, 4)

	assert.Equal(t, []float64{2, 2, 2, 2}, got)
}

func TestEnsembleWeightsSumToOne(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := hourlySeries(start, 90, timeseries.Temperature2m, func(i int) float64 {
		return 15 + 8*math.Sin(2*math.Pi*float64(i)/24)
	})

	m, err := trainEnsemble(hist.Column(timeseries.Temperature2m), defaultLags, defaultSeed)
	assert.NoError(t, err)
	assert.NotNil(t, m.secondary)
	assert.InDelta(t, 1.0, m.primaryWeight+m.secondaryWeight, 1e-9)
}
