package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-solar-forecast/internal/common"
	"github.com/i474232898/weather-solar-forecast/internal/geo"
)

// GoogleProvider wraps the Google Maps APIs. It is the only keyed provider
// and, when configured, runs first in the geocoding priority list because
// it handles specific street addresses best. Autocomplete goes through the
// Places API directly since the geocoder package does not cover it.
type GoogleProvider struct {
	name       string
	apiKey     string
	placesURL  string
	detailsURL string
	client     *http.Client
}

// NewGoogleProvider configures the Google Maps client with the given key.
// Returns nil when no key is configured, so callers can skip the provider.
func NewGoogleProvider(apiKey string, client *http.Client) *GoogleProvider {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &GoogleProvider{
		name:       "google-maps",
		apiKey:     apiKey,
		placesURL:  "https://maps.googleapis.com/maps/api/place/autocomplete/json",
		detailsURL: "https://maps.googleapis.com/maps/api/place/details/json",
		client:     client,
	}
}

func (p *GoogleProvider) Name() string {
	return p.name
}

// Geocode resolves the query and enriches the result with a formatted
// address from a follow-up reverse lookup.
func (p *GoogleProvider) Geocode(ctx context.Context, query string) (*geo.Location, error) {
	location, err := geocoder.Geocoding(geocoder.Address{Street: query})
	if err != nil {
		return nil, err
	}

	loc := &geo.Location{
		Name:      query,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	}

	// Best effort: a reverse lookup yields the canonical formatted address
	// and country. Failure keeps the query text as the name.
	if addresses, err := geocoder.GeocodingReverse(location); err == nil && len(addresses) > 0 {
		addr := addresses[0]
		loc.Name = common.FirstNonEmpty(addr.FormatAddress(), query)
		if addr.Country != "" {
			country := addr.Country
			loc.Country = &country
		}
	}
	return loc, nil
}

// ReverseGeocode converts coordinates to a formatted address.
func (p *GoogleProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Location, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	addr := addresses[0]
	name := addr.FormatAddress()
	if name == "" {
		return nil, nil
	}

	loc := &geo.Location{
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
	}
	if addr.Country != "" {
		country := addr.Country
		loc.Country = &country
	}
	return loc, nil
}

type placesPrediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

type placeDetails struct {
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Suggest returns up to limit Places Autocomplete predictions, resolving
// each prediction's coordinates through a Place Details lookup. A non-OK
// API status yields an empty list, not an error.
func (p *GoogleProvider) Suggest(ctx context.Context, query string, limit int) ([]geo.Suggestion, error) {
	values := url.Values{}
	values.Set("input", query)
	values.Set("key", p.apiKey)
	values.Set("types", "geocode")
	values.Set("language", "en")

	var payload struct {
		Status      string             `json:"status"`
		Predictions []placesPrediction `json:"predictions"`
	}
	if err := p.get(ctx, p.placesURL, values, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, nil
	}

	suggestions := make([]geo.Suggestion, 0, limit)
	for _, pred := range payload.Predictions {
		if len(suggestions) >= limit {
			break
		}

		details, err := p.placeDetails(ctx, pred.PlaceID)
		if err != nil || details == nil {
			continue
		}
		loc := details.Geometry.Location
		if loc.Lat == nil || loc.Lng == nil {
			continue
		}

		suggestions = append(suggestions, geo.Suggestion{
			DisplayName: pred.Description,
			Name:        common.FirstNonEmpty(details.Name, strings.SplitN(pred.Description, ",", 2)[0]),
			Latitude:    *loc.Lat,
			Longitude:   *loc.Lng,
			Source:      p.name,
		})
	}
	return suggestions, nil
}

func (p *GoogleProvider) placeDetails(ctx context.Context, placeID string) (*placeDetails, error) {
	values := url.Values{}
	values.Set("place_id", placeID)
	values.Set("key", p.apiKey)
	values.Set("fields", "geometry,formatted_address,name")

	var payload struct {
		Status string       `json:"status"`
		Result placeDetails `json:"result"`
	}
	if err := p.get(ctx, p.detailsURL, values, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, nil
	}
	return &payload.Result, nil
}

func (p *GoogleProvider) get(ctx context.Context, baseURL string, values url.Values, out interface{}) error {
	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google maps returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
