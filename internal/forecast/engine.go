package forecast

import (
	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

const (
	// defaultAlpha is the model weight in the convex blend with the API
	// forecast.
	defaultAlpha = 0.6

	// minTrainPoints is the minimum count of clean hourly observations a
	// variable needs before a local model is trained at all.
	minTrainPoints = 48

	defaultSeed = 42
)

// Engine runs the per-variable pipeline: feature construction, ensemble
// training, recursive forecasting, and blending with the API forecast.
// Every stage degrades to a less sophisticated fallback instead of failing
// the request.
type Engine struct {
	alpha          float64
	lags           int
	minTrainPoints int
	seed           int64
}

func NewEngine() *Engine {
	return &Engine{
		alpha:          defaultAlpha,
		lags:           defaultLags,
		minTrainPoints: minTrainPoints,
		seed:           defaultSeed,
	}
}

// TargetVariables lists the variables that get local models. The remaining
// variables pass through from the API forecast untouched.
func (e *Engine) TargetVariables() []timeseries.Variable {
	return []timeseries.Variable{
		timeseries.Temperature2m,
		timeseries.ShortwaveRadiation,
		timeseries.WindSpeed10m,
	}
}

// ModelForecast trains a model on the variable's history and predicts one
// value per API forecast timestamp. With fewer than minTrainPoints clean
// observations, or on any training failure, the raw API forecast column is
// returned unmodified.
func (e *Engine) ModelForecast(hist, api timeseries.Series, v timeseries.Variable) timeseries.Column {
	apiCol := api.Column(v)

	histCol := hist.Column(v)
	if histCol.Len() < e.minTrainPoints {
		logger.Warnf("insufficient historical data for %s, using API forecast only", v)
		return apiCol
	}

	model, err := Train(histCol, e.lags, e.seed)
	if err != nil {
		logger.Errorf("training failed for %s: %v, using API forecast only", v, err)
		return apiCol
	}

	return timeseries.Column{
		Times:  api.Times(),
		Values: model.Forecast(histCol, len(api)),
	}
}

// Blend combines the model and API columns with the engine's fixed weight.
// Any blending failure degrades to the raw API column.
func (e *Engine) Blend(model, api timeseries.Column, v timeseries.Variable) timeseries.Column {
	blended, err := Blend(model, api, e.alpha)
	if err != nil {
		logger.Warnf("could not blend %s: %v, using API forecast only", v, err)
		return api
	}
	return blended
}
