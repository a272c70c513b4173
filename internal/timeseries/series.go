package timeseries

import (
	"sort"
	"time"
)

// Variable identifies one of the hourly variables served by the upstream
// weather API. The string values double as JSON keys and as the upstream
// query-parameter names.
type Variable string

const (
	Temperature2m       Variable = "temperature_2m"
	RelativeHumidity2m  Variable = "relativehumidity_2m"
	ShortwaveRadiation  Variable = "shortwave_radiation"
	CloudCover          Variable = "cloudcover"
	Precipitation       Variable = "precipitation"
	PressureMSL         Variable = "pressure_msl"
	WindSpeed10m        Variable = "wind_speed_10m"
)

// Variables returns all supported variables in canonical order.
func Variables() []Variable {
	return []Variable{
		Temperature2m,
		RelativeHumidity2m,
		ShortwaveRadiation,
		CloudCover,
		Precipitation,
		PressureMSL,
		WindSpeed10m,
	}
}

// Point is a single hourly observation or forecast value. Fields absent from
// upstream data stay nil; they are never coerced to zero.
type Point struct {
	Time               time.Time `json:"time"`
	Temperature2m      *float64  `json:"temperature_2m,omitempty"`
	RelativeHumidity2m *float64  `json:"relativehumidity_2m,omitempty"`
	ShortwaveRadiation *float64  `json:"shortwave_radiation,omitempty"`
	CloudCover         *float64  `json:"cloudcover,omitempty"`
	Precipitation      *float64  `json:"precipitation,omitempty"`
	PressureMSL        *float64  `json:"pressure_msl,omitempty"`
	WindSpeed10m       *float64  `json:"wind_speed_10m,omitempty"`
}

// Value returns the field for v, or nil when unknown.
func (p *Point) Value(v Variable) *float64 {
	switch v {
	case Temperature2m:
		return p.Temperature2m
	case RelativeHumidity2m:
		return p.RelativeHumidity2m
	case ShortwaveRadiation:
		return p.ShortwaveRadiation
	case CloudCover:
		return p.CloudCover
	case Precipitation:
		return p.Precipitation
	case PressureMSL:
		return p.PressureMSL
	case WindSpeed10m:
		return p.WindSpeed10m
	}
	return nil
}

// SetValue sets the field for v. A nil value marks the field unknown.
func (p *Point) SetValue(v Variable, f *float64) {
	switch v {
	case Temperature2m:
		p.Temperature2m = f
	case RelativeHumidity2m:
		p.RelativeHumidity2m = f
	case ShortwaveRadiation:
		p.ShortwaveRadiation = f
	case CloudCover:
		p.CloudCover = f
	case Precipitation:
		p.Precipitation = f
	case PressureMSL:
		p.PressureMSL = f
	case WindSpeed10m:
		p.WindSpeed10m = f
	}
}

// Series is a time-ordered sequence of points.
type Series []Point

// Normalize returns the series sorted ascending by time with duplicate
// timestamps removed, keeping the first-seen point.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return s
	}

	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	dedup := out[:1]
	for _, p := range out[1:] {
		if p.Time.Equal(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// Times returns the timestamps of all points in order.
func (s Series) Times() []time.Time {
	times := make([]time.Time, len(s))
	for i, p := range s {
		times[i] = p.Time
	}
	return times
}

// Column extracts the clean observations of v: points with an unknown value
// are skipped entirely.
func (s Series) Column(v Variable) Column {
	col := Column{}
	for i := range s {
		val := s[i].Value(v)
		if val == nil {
			continue
		}
		col.Times = append(col.Times, s[i].Time)
		col.Values = append(col.Values, *val)
	}
	return col
}

// FullColumn extracts v for every point, unknown values included as nil.
func (s Series) FullColumn(v Variable) []*float64 {
	out := make([]*float64, len(s))
	for i := range s {
		out[i] = s[i].Value(v)
	}
	return out
}

// SetColumn writes col into the series for variable v, matching points by
// exact timestamp. Points without a matching column entry are left unchanged.
func (s Series) SetColumn(v Variable, col Column) {
	byTime := make(map[int64]float64, len(col.Values))
	for i, t := range col.Times {
		byTime[t.UnixNano()] = col.Values[i]
	}
	for i := range s {
		if val, ok := byTime[s[i].Time.UnixNano()]; ok {
			val := val
			s[i].SetValue(v, &val)
		}
	}
}

// Nearest returns the point whose timestamp is closest to t.
func (s Series) Nearest(t time.Time) (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	best := 0
	bestDiff := absDuration(s[0].Time.Sub(t))
	for i := 1; i < len(s); i++ {
		if d := absDuration(s[i].Time.Sub(t)); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return s[best], true
}

// Clone returns a deep-enough copy: points are value types, so a copied
// slice is independent except for the shared float pointers, which are
// never mutated in place.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Column is a single variable extracted from a series: parallel slices of
// timestamps and known values.
type Column struct {
	Times  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (c Column) Len() int { return len(c.Values) }

// Float returns a pointer to f, for building optional fields.
func Float(f float64) *float64 { return &f }

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
