package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/tj/assert"

	"github.com/i474232898/weather-solar-forecast/internal/geo"
	"github.com/i474232898/weather-solar-forecast/internal/service"
)

type stubService struct {
	lastReq     service.Request
	resp        *service.Response
	err         error
	suggestions []geo.Suggestion
}

func (s *stubService) WeatherData(_ context.Context, req service.Request) (*service.Response, error) {
	s.lastReq = req
	return s.resp, s.err
}

func (s *stubService) Autocomplete(_ context.Context, _ string) []geo.Suggestion {
	return s.suggestions
}

func newTestApp(svc WeatherService) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, svc)
	return app
}

func postData(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/data", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestDataRejectsEmptyBody(t *testing.T) {
	app := newTestApp(&stubService{})

	status, _ := postData(t, app, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDataRejectsBothLocationAndCoordinates(t *testing.T) {
	app := newTestApp(&stubService{})

	status, body := postData(t, app, `{"location":"Pune","latitude":18.52,"longitude":73.85}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "exactly one")
}

func TestDataRejectsOutOfRangeLatitude(t *testing.T) {
	app := newTestApp(&stubService{})

	status, _ := postData(t, app, `{"latitude":95,"longitude":10}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDataRejectsOutOfRangeDays(t *testing.T) {
	app := newTestApp(&stubService{})

	status, _ := postData(t, app, `{"location":"Pune","historical_days":5}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postData(t, app, `{"location":"Pune","forecast_days":30}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDataAppliesDefaults(t *testing.T) {
	svc := &stubService{resp: &service.Response{}}
	app := newTestApp(svc)

	status, _ := postData(t, app, `{"location":"Pune"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Pune", svc.lastReq.Location)
	assert.Equal(t, service.DefaultHistoricalDays, svc.lastReq.HistoricalDays)
	assert.Equal(t, service.DefaultForecastDays, svc.lastReq.ForecastDays)
}

func TestDataCoordinateRequest(t *testing.T) {
	svc := &stubService{resp: &service.Response{
		Location: service.LocationMetadata{ResolvedName: "18.5200, 73.8500"},
	}}
	app := newTestApp(svc)

	status, body := postData(t, app, `{"latitude":18.52,"longitude":73.85,"historical_days":30,"forecast_days":3}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 18.52, *svc.lastReq.Latitude)
	assert.Equal(t, 30, svc.lastReq.HistoricalDays)
	assert.Contains(t, body, "18.5200, 73.8500")
}

func TestDataMapsResolutionFailureTo400(t *testing.T) {
	svc := &stubService{err: &geo.NotFoundError{Query: "xyzzy"}}
	app := newTestApp(svc)

	status, body := postData(t, app, `{"location":"xyzzy"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "xyzzy")
}

func TestDataMapsUpstreamFailureTo500(t *testing.T) {
	svc := &stubService{err: io.ErrUnexpectedEOF}
	app := newTestApp(svc)

	status, body := postData(t, app, `{"location":"Pune"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "failed to fetch weather data")
	// Internal error details never leak to the client.
	assert.NotContains(t, body, "unexpected EOF")
}

func TestAutocompleteReturnsSuggestions(t *testing.T) {
	svc := &stubService{suggestions: []geo.Suggestion{
		{DisplayName: "Pune, Maharashtra, India", Latitude: 18.52, Longitude: 73.85},
	}}
	app := newTestApp(svc)

	req := httptest.NewRequest("GET", "/api/autocomplete?q=pun", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var payload struct {
		Suggestions []geo.Suggestion `json:"suggestions"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.Suggestions, 1)
	assert.Equal(t, "Pune, Maharashtra, India", payload.Suggestions[0].DisplayName)
}
