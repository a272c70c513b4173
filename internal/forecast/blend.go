package forecast

import (
	"errors"
	"time"

	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

// Blend combines a model forecast with the API forecast per timestamp:
// blended = alpha*model + (1-alpha)*api. Series are aligned by exact
// timestamp intersection, skipped when the timestamps already match.
func Blend(model, api timeseries.Column, alpha float64) (timeseries.Column, error) {
	if model.Len() == 0 || api.Len() == 0 {
		return timeseries.Column{}, errors.New("cannot blend empty series")
	}

	if sameTimes(model, api) {
		out := timeseries.Column{
			Times:  append([]time.Time(nil), model.Times...),
			Values: make([]float64, model.Len()),
		}
		for i := range model.Values {
			out.Values[i] = alpha*model.Values[i] + (1-alpha)*api.Values[i]
		}
		return out, nil
	}

	apiByTime := make(map[int64]float64, api.Len())
	for i, t := range api.Times {
		apiByTime[t.UnixNano()] = api.Values[i]
	}

	var out timeseries.Column
	for i, t := range model.Times {
		apiVal, ok := apiByTime[t.UnixNano()]
		if !ok {
			continue
		}
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, alpha*model.Values[i]+(1-alpha)*apiVal)
	}

	if out.Len() == 0 {
		return timeseries.Column{}, errors.New("no common timestamps to blend")
	}
	return out, nil
}

func sameTimes(a, b timeseries.Column) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Times {
		if !a.Times[i].Equal(b.Times[i]) {
			return false
		}
	}
	return true
}
