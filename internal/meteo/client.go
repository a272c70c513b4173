package meteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/timeseries"
)

// ErrForecastUnavailable is returned when every variable-set attempt against
// the forecast endpoint failed. The forecast is mandatory; historical data
// degrades to an empty series instead.
var ErrForecastUnavailable = errors.New("failed to fetch forecast data")

const (
	// archiveLagDays is the provider's data-lag policy: the archive endpoint
	// reliably has data only up to a few days ago.
	archiveLagDays = 3

	// maxForecastDays is the upstream forecast horizon limit.
	maxForecastDays = 14
)

// archiveFloor is the earliest archive date this service will request.
var archiveFloor = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// variableSets are the descending requested-variable sets. Locations lacking
// some variables still return partial data with a smaller set rather than
// failing outright.
var variableSets = [][]timeseries.Variable{
	{
		timeseries.Temperature2m,
		timeseries.RelativeHumidity2m,
		timeseries.ShortwaveRadiation,
		timeseries.CloudCover,
		timeseries.Precipitation,
		timeseries.PressureMSL,
		timeseries.WindSpeed10m,
	},
	{
		timeseries.Temperature2m,
		timeseries.RelativeHumidity2m,
		timeseries.ShortwaveRadiation,
		timeseries.CloudCover,
		timeseries.Precipitation,
		timeseries.PressureMSL,
	},
	{
		timeseries.Temperature2m,
		timeseries.RelativeHumidity2m,
		timeseries.ShortwaveRadiation,
		timeseries.CloudCover,
	},
	{
		timeseries.Temperature2m,
		timeseries.RelativeHumidity2m,
	},
}

// Client fetches hourly historical and forecast series from Open-Meteo.
type Client struct {
	archiveURL  string
	forecastURL string
	client      *http.Client

	// now is overridable for tests.
	now func() time.Time
}

func NewClient(client *http.Client) *Client {
	return &Client{
		archiveURL:  "https://archive-api.open-meteo.com/v1/archive",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		client:      client,
		now:         time.Now,
	}
}

// Historical fetches the last `days` of hourly data ending archiveLagDays
// before today. On total exhaustion of variable-set attempts it returns an
// empty series, never an error: callers proceed without history.
func (c *Client) Historical(ctx context.Context, lat, lon float64, days int) timeseries.Series {
	endDate := c.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -archiveLagDays)
	startDate := endDate.AddDate(0, 0, -days)
	if startDate.Before(archiveFloor) {
		logger.Warnf("historical start %s is before %s, clamping", startDate.Format("2006-01-02"), archiveFloor.Format("2006-01-02"))
		startDate = archiveFloor
	}

	for _, vars := range variableSets {
		values := baseValues(lat, lon, vars)
		values.Set("start_date", startDate.Format("2006-01-02"))
		values.Set("end_date", endDate.Format("2006-01-02"))

		series, err := c.fetch(ctx, c.archiveURL, values, vars)
		if err != nil {
			logger.Warnf("historical fetch with %d variables failed: %v", len(vars), err)
			continue
		}
		logger.Infof("fetched %d historical points", len(series))
		return series
	}

	logger.Errorf("failed to fetch historical data after all attempts")
	return timeseries.Series{}
}

// Forecast fetches the next `days` (capped at maxForecastDays) of hourly
// forecast data. The forecast is mandatory: exhausting every variable set
// yields ErrForecastUnavailable.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (timeseries.Series, error) {
	if days > maxForecastDays {
		days = maxForecastDays
	}

	for _, vars := range variableSets {
		values := baseValues(lat, lon, vars)
		values.Set("forecast_days", fmt.Sprintf("%d", days))

		series, err := c.fetch(ctx, c.forecastURL, values, vars)
		if err != nil {
			logger.Warnf("forecast fetch with %d variables failed: %v", len(vars), err)
			continue
		}
		logger.Infof("fetched %d forecast points", len(series))
		return series, nil
	}

	return nil, ErrForecastUnavailable
}

func baseValues(lat, lon float64, vars []timeseries.Variable) url.Values {
	hourly := ""
	for i, v := range vars {
		if i > 0 {
			hourly += ","
		}
		hourly += string(v)
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("hourly", hourly)
	values.Set("timezone", "UTC")
	return values
}

// fetch performs one attempt. A response is accepted only if it carries a
// non-empty time array; any requested column absent from the payload is
// represented as unknown for every timestamp rather than dropping rows.
func (c *Client) fetch(ctx context.Context, baseURL string, values url.Values, vars []timeseries.Variable) (timeseries.Series, error) {
	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var payload struct {
		Error  bool                       `json:"error"`
		Reason string                     `json:"reason"`
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Error || payload.Reason != "" {
		return nil, fmt.Errorf("upstream error: %s", payload.Reason)
	}
	if payload.Hourly == nil {
		return nil, errors.New("no hourly data in response")
	}

	times, err := parseTimes(payload.Hourly["time"])
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, errors.New("empty time array in hourly data")
	}

	series := make(timeseries.Series, len(times))
	for i, t := range times {
		series[i] = timeseries.Point{Time: t}
	}

	for _, v := range vars {
		raw, ok := payload.Hourly[string(v)]
		if !ok {
			continue // column stays unknown for every timestamp
		}
		var column []*float64
		if err := json.Unmarshal(raw, &column); err != nil || len(column) != len(times) {
			continue
		}
		for i := range series {
			series[i].SetValue(v, column[i])
		}
	}

	return series.Normalize(), nil
}

// parseTimes decodes the hourly time array. Open-Meteo emits minute-resolution
// local-format timestamps when a timezone is requested.
func parseTimes(raw json.RawMessage) ([]time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	var stamps []string
	if err := json.Unmarshal(raw, &stamps); err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(stamps))
	for _, s := range stamps {
		t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
		if err != nil {
			t, err = time.Parse(time.RFC3339, s)
			if err != nil {
				continue // skip unparseable stamps rather than failing the row set
			}
			t = t.UTC()
		}
		times = append(times, t)
	}
	return times, nil
}
