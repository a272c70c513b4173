package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/umahmood/haversine"

	"github.com/i474232898/weather-solar-forecast/internal/common"
	"github.com/i474232898/weather-solar-forecast/internal/geo"
)

// maxReverseDistanceKm bounds how far an Open-Meteo nearby-search hit may
// be from the requested coordinate before it is rejected as a reverse
// geocoding answer.
const maxReverseDistanceKm = 100.0

// OpenMeteoProvider uses the free Open-Meteo geocoding API. It is the
// fastest keyless provider and serves geocoding, reverse geocoding (via a
// nearby search), and autocomplete.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "open-meteo",
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoResult struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Admin1    string   `json:"admin1"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

func (p *OpenMeteoProvider) search(ctx context.Context, values url.Values) ([]openMeteoResult, error) {
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo geocoding returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []openMeteoResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// Geocode returns the top search hit, or nil when there is none.
func (p *OpenMeteoProvider) Geocode(ctx context.Context, query string) (*geo.Location, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", "10")
	values.Set("language", "en")

	results, err := p.search(ctx, values)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		loc := &geo.Location{
			Name:      common.FirstNonEmpty(r.Name, query),
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
			Elevation: r.Elevation,
		}
		if r.Country != "" {
			country := r.Country
			loc.Country = &country
		}
		return loc, nil
	}
	return nil, nil
}

// ReverseGeocode runs a nearby search around the coordinate. Hits further
// than maxReverseDistanceKm are rejected so open-ocean points fall through
// to the formatted-coordinate fallback.
func (p *OpenMeteoProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Location, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("count", "1")

	results, err := p.search(ctx, values)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0].Latitude == nil || results[0].Longitude == nil {
		return nil, nil
	}

	r := results[0]
	_, km := haversine.Distance(
		haversine.Coord{Lat: lat, Lon: lon},
		haversine.Coord{Lat: *r.Latitude, Lon: *r.Longitude},
	)
	if km > maxReverseDistanceKm {
		return nil, nil
	}

	loc := &geo.Location{
		Name:      r.Name,
		Latitude:  lat,
		Longitude: lon,
	}
	if r.Country != "" {
		country := r.Country
		loc.Country = &country
	}
	return loc, nil
}

// Suggest returns up to limit ranked candidates for the query.
func (p *OpenMeteoProvider) Suggest(ctx context.Context, query string, limit int) ([]geo.Suggestion, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", fmt.Sprintf("%d", limit))
	values.Set("language", "en")

	results, err := p.search(ctx, values)
	if err != nil {
		return nil, err
	}

	suggestions := make([]geo.Suggestion, 0, len(results))
	for _, r := range results {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		s := geo.Suggestion{
			DisplayName: common.JoinNonEmpty(", ", r.Name, r.Admin1, r.Country),
			Name:        r.Name,
			Latitude:    *r.Latitude,
			Longitude:   *r.Longitude,
			Source:      p.name,
		}
		if r.Country != "" {
			country := r.Country
			s.Country = &country
		}
		suggestions = append(suggestions, s)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions, nil
}
