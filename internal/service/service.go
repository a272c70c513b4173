package service

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-solar-forecast/internal/geo"
	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

// ErrInvalidRequest is returned when neither a location text nor a full
// coordinate pair was supplied, or both were.
var ErrInvalidRequest = errors.New("exactly one of 'location' or the 'latitude'/'longitude' pair must be provided")

const (
	DefaultHistoricalDays = 60
	DefaultForecastDays   = 7
)

// LocationResolver resolves free text or coordinates to a Location.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (*geo.Location, error)
	ResolveCoordinates(ctx context.Context, lat, lon float64) *geo.Location
}

// Suggester serves autocomplete queries.
type Suggester interface {
	Suggest(ctx context.Context, query string) []geo.Suggestion
}

// WeatherFetcher provides the hourly historical and forecast series.
type WeatherFetcher interface {
	Historical(ctx context.Context, lat, lon float64, days int) timeseries.Series
	Forecast(ctx context.Context, lat, lon float64, days int) (timeseries.Series, error)
}

// Forecaster is the per-variable model/blend pipeline.
type Forecaster interface {
	TargetVariables() []timeseries.Variable
	ModelForecast(hist, api timeseries.Series, v timeseries.Variable) timeseries.Column
	Blend(model, api timeseries.Column, v timeseries.Variable) timeseries.Column
}

// Request carries the parameters of one weather-data request.
type Request struct {
	Location       string
	Latitude       *float64
	Longitude      *float64
	HistoricalDays int
	ForecastDays   int
}

// LocationMetadata is the resolved-place section of the response.
type LocationMetadata struct {
	ResolvedName string   `json:"resolved_name"`
	Country      *string  `json:"country,omitempty"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Elevation    *float64 `json:"elevation,omitempty"`
}

// Response is the combined payload: location metadata, current conditions,
// and the four time series.
type Response struct {
	Location        LocationMetadata   `json:"location"`
	Current         map[string]float64 `json:"current"`
	Historical      timeseries.Series  `json:"historical"`
	APIForecast     timeseries.Series  `json:"api_forecast"`
	MLForecast      timeseries.Series  `json:"ml_forecast"`
	BlendedForecast timeseries.Series  `json:"blended_forecast"`
}

// Service orchestrates one request: resolve location, fetch series, train
// and blend per variable, assemble the response.
type Service struct {
	resolver     LocationResolver
	autocomplete Suggester
	fetcher      WeatherFetcher
	forecaster   Forecaster

	// now is overridable for tests.
	now func() time.Time
}

func New(resolver LocationResolver, autocomplete Suggester, fetcher WeatherFetcher, forecaster Forecaster) *Service {
	return &Service{
		resolver:     resolver,
		autocomplete: autocomplete,
		fetcher:      fetcher,
		forecaster:   forecaster,
		now:          time.Now,
	}
}

// WeatherData runs the full pipeline. It fails only when the request is
// invalid, no location could be resolved, or the mandatory forecast fetch
// failed; every per-variable modeling failure degrades silently.
func (s *Service) WeatherData(ctx context.Context, req Request) (*Response, error) {
	loc, err := s.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	historicalDays := req.HistoricalDays
	if historicalDays <= 0 {
		historicalDays = DefaultHistoricalDays
	}
	forecastDays := req.ForecastDays
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}

	historical := s.fetcher.Historical(ctx, loc.Latitude, loc.Longitude, historicalDays).Normalize()
	if len(historical) == 0 {
		logger.Warnf("historical data is empty, continuing with forecast only")
	}

	apiForecast, err := s.fetcher.Forecast(ctx, loc.Latitude, loc.Longitude, forecastDays)
	if err != nil {
		return nil, err
	}
	apiForecast = apiForecast.Normalize()

	mlForecast := apiForecast.Clone()
	blended := apiForecast.Clone()

	for _, v := range s.forecaster.TargetVariables() {
		modelCol := s.forecaster.ModelForecast(historical, apiForecast, v)
		mlForecast.SetColumn(v, modelCol)

		blendedCol := s.forecaster.Blend(modelCol, apiForecast.Column(v), v)
		blended.SetColumn(v, blendedCol)
	}

	return &Response{
		Location: LocationMetadata{
			ResolvedName: loc.Name,
			Country:      loc.Country,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			Elevation:    loc.Elevation,
		},
		Current:         currentConditions(apiForecast, s.now()),
		Historical:      historical,
		APIForecast:     apiForecast,
		MLForecast:      mlForecast,
		BlendedForecast: blended,
	}, nil
}

// Autocomplete delegates to the suggestion provider chain. Never fails.
func (s *Service) Autocomplete(ctx context.Context, query string) []geo.Suggestion {
	return s.autocomplete.Suggest(ctx, query)
}

func (s *Service) resolveLocation(ctx context.Context, req Request) (*geo.Location, error) {
	hasCoords := req.Latitude != nil && req.Longitude != nil
	hasText := req.Location != ""

	switch {
	case hasText && !hasCoords:
		return s.resolver.Resolve(ctx, req.Location)
	case hasCoords && !hasText:
		return s.resolver.ResolveCoordinates(ctx, *req.Latitude, *req.Longitude), nil
	default:
		return nil, ErrInvalidRequest
	}
}

// currentConditions picks the forecast point nearest to now and returns its
// known fields keyed by variable name; unknown fields are omitted.
func currentConditions(forecast timeseries.Series, now time.Time) map[string]float64 {
	current := map[string]float64{}

	point, ok := forecast.Nearest(now)
	if !ok {
		return current
	}
	for _, v := range timeseries.Variables() {
		if val := point.Value(v); val != nil {
			current[string(v)] = *val
		}
	}
	return current
}
