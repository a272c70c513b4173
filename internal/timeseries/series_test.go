package timeseries

import (
	"testing"
	"time"

	"github.com/tj/assert"
)

func ts(h int) time.Time {
	return time.Date(2025, 6, 1, h, 0, 0, 0, time.UTC)
}

func TestNormalizeSortsAndDeduplicates(t *testing.T) {
	s := Series{
		{Time: ts(2), Temperature2m: Float(12)},
		{Time: ts(0), Temperature2m: Float(10)},
		{Time: ts(1), Temperature2m: Float(11)},
		{Time: ts(2), Temperature2m: Float(99)}, // duplicate, must lose to first-seen
	}

	got := s.Normalize()

	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Time.After(got[i-1].Time), "timestamps must strictly increase")
	}
	assert.Equal(t, 12.0, *got[2].Temperature2m)
}

func TestColumnSkipsUnknownValues(t *testing.T) {
	s := Series{
		{Time: ts(0), WindSpeed10m: Float(3)},
		{Time: ts(1)},
		{Time: ts(2), WindSpeed10m: Float(5)},
	}

	col := s.Column(WindSpeed10m)

	assert.Equal(t, 2, col.Len())
	assert.Equal(t, []float64{3, 5}, col.Values)
	assert.Equal(t, ts(2), col.Times[1])
}

func TestSetColumnMatchesByTimestamp(t *testing.T) {
	s := Series{
		{Time: ts(0)},
		{Time: ts(1)},
		{Time: ts(2)},
	}
	s.SetColumn(Temperature2m, Column{
		Times:  []time.Time{ts(0), ts(2)},
		Values: []float64{20, 22},
	})

	assert.Equal(t, 20.0, *s[0].Temperature2m)
	assert.Nil(t, s[1].Temperature2m)
	assert.Equal(t, 22.0, *s[2].Temperature2m)
}

func TestNearest(t *testing.T) {
	s := Series{
		{Time: ts(0)},
		{Time: ts(3)},
		{Time: ts(6)},
	}

	p, ok := s.Nearest(ts(4))
	assert.True(t, ok)
	assert.Equal(t, ts(3), p.Time)

	_, ok = Series{}.Nearest(ts(0))
	assert.False(t, ok)
}

func TestValueRoundTripsAllVariables(t *testing.T) {
	p := Point{Time: ts(0)}
	for i, v := range Variables() {
		p.SetValue(v, Float(float64(i)))
	}
	for i, v := range Variables() {
		assert.Equal(t, float64(i), *p.Value(v))
	}
}
