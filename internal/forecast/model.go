package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

const (
	// advancedTrainThreshold is the observation count above which training
	// uses the advanced feature matrix.
	advancedTrainThreshold = 100

	// advancedPredictThreshold is the window length above which the
	// recursive forecaster switches to advanced features.
	advancedPredictThreshold = 48

	// minTrainingRows is the minimum supervised-frame size for the ensemble.
	minTrainingRows = 10
)

var forestDefaults = forestConfig{
	nTrees: 100,
	tree: treeConfig{
		maxDepth:        15,
		minSamplesSplit: 5,
		minSamplesLeaf:  2,
	},
	sqrtFeatures: true,
}

var boostDefaults = boostConfig{
	nTrees:       100,
	learningRate: 0.1,
	tree: treeConfig{
		maxDepth:        8,
		minSamplesSplit: 5,
		minSamplesLeaf:  2,
	},
	sqrtFeatures: true,
}

// fallbackForest considers every feature per split.
var fallbackForest = forestConfig{
	nTrees: 100,
	tree: treeConfig{
		maxDepth:        10,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	},
}

// Model is a per-variable trained ensemble: a bagging regressor, an optional
// boosting regressor, and a training-fit weight pair. It lives only for the
// duration of one request.
type Model struct {
	primary   *forestRegressor
	secondary *boostedRegressor

	primaryWeight   float64
	secondaryWeight float64

	lags      int
	nFeatures int
	advanced  bool
}

// Train fits the two-regressor ensemble on the series. If ensemble training
// fails for any reason it falls back to a single bagging regressor with
// weight 1.0; an error is returned only when even that is impossible.
func Train(col timeseries.Column, lags int, seed int64) (*Model, error) {
	m, err := trainEnsemble(col, lags, seed)
	if err == nil {
		return m, nil
	}
	logger.Warnf("ensemble training failed: %v, falling back to single model", err)

	fm := lagMatrix(col.Values, lags)
	if len(fm.X) == 0 {
		return nil, errors.New("not enough data for training")
	}

	forest := fitForest(fm.X, fm.y, fallbackForest, seed)
	return &Model{
		primary:       forest,
		primaryWeight: 1.0,
		lags:          fm.lags,
		nFeatures:     fm.lags,
	}, nil
}

func trainEnsemble(col timeseries.Column, lags int, seed int64) (*Model, error) {
	preferAdvanced := col.Len() > advancedTrainThreshold
	fm := buildTrainingMatrix(col.Times, col.Values, lags, preferAdvanced)
	if len(fm.X) < minTrainingRows {
		return nil, fmt.Errorf("only %d training rows", len(fm.X))
	}

	forest := fitForest(fm.X, fm.y, forestDefaults, seed)
	boosted := fitBoosted(fm.X, fm.y, boostDefaults, seed)

	forestScore := rSquared(forest.predict, fm.X, fm.y)
	boostScore := rSquared(boosted.predict, fm.X, fm.y)

	primaryWeight, secondaryWeight := 0.5, 0.5
	if total := forestScore + boostScore; total > 0 {
		primaryWeight = forestScore / total
		secondaryWeight = boostScore / total
	}

	logger.Infof("trained ensemble: bagging weight %.3f, boosting weight %.3f", primaryWeight, secondaryWeight)

	return &Model{
		primary:         forest,
		secondary:       boosted,
		primaryWeight:   primaryWeight,
		secondaryWeight: secondaryWeight,
		lags:            fm.lags,
		nFeatures:       len(fm.X[0]),
		advanced:        fm.advanced,
	}, nil
}

// Forecast predicts steps hourly values beyond the end of the series by
// maintaining a rolling window of known and predicted values. Per-step
// failures repeat the last known value and continue.
func (m *Model) Forecast(col timeseries.Column, steps int) []float64 {
	if steps <= 0 {
		return nil
	}

	if col.Len() < m.lags {
		last := 0.0
		if col.Len() > 0 {
			last = col.Values[col.Len()-1]
		}
		out := make([]float64, steps)
		for i := range out {
			out[i] = last
		}
		return out
	}

	// Rolling window seeded with the last lags observations; predictions
	// are appended as if observed and the virtual clock advances hourly.
	window := append([]float64(nil), col.Values[col.Len()-m.lags:]...)
	wTimes := append([]time.Time(nil), col.Times[col.Len()-m.lags:]...)

	out := make([]float64, 0, steps)
	for step := 0; step < steps; step++ {
		value, err := m.step(wTimes, window)
		if err != nil {
			logger.Warnf("prediction error at step %d: %v", step, err)
			value = window[len(window)-1]
		}
		out = append(out, value)
		window = append(window, value)
		wTimes = append(wTimes, wTimes[len(wTimes)-1].Add(time.Hour))
	}
	return out
}

func (m *Model) step(wTimes []time.Time, window []float64) (float64, error) {
	var row []float64
	if len(window) > advancedPredictThreshold {
		lags := m.lags
		if lags > len(window) {
			lags = len(window)
		}
		fm := buildTrainingMatrix(wTimes, window, lags, true)
		if len(fm.X) > 0 {
			row = fm.X[len(fm.X)-1]
		} else {
			row = lagRow(window, m.lags)
		}
	} else {
		row = lagRow(window, m.lags)
	}

	if len(row) != m.nFeatures {
		return 0, fmt.Errorf("feature width %d does not match model width %d", len(row), m.nFeatures)
	}

	primary := m.primary.predict(row)
	secondary := primary
	if m.secondary != nil {
		secondary = m.secondary.predict(row)
	}
	return primary*m.primaryWeight + secondary*m.secondaryWeight, nil
}
