package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-solar-forecast/internal/common"
	"github.com/i474232898/weather-solar-forecast/internal/geo"
)

// GeoCodeXYZProvider queries the free tier of geocode.xyz. It only supports
// forward geocoding and reports "not found" as a (0, 0) coordinate pair.
type GeoCodeXYZProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewGeoCodeXYZProvider(client *http.Client) *GeoCodeXYZProvider {
	return &GeoCodeXYZProvider{
		name:    "geocode.xyz",
		baseURL: "https://geocode.xyz",
		client:  client,
	}
}

func (p *GeoCodeXYZProvider) Name() string {
	return p.name
}

func (p *GeoCodeXYZProvider) Geocode(ctx context.Context, query string) (*geo.Location, error) {
	values := url.Values{}
	values.Set("geoit", "JSON")
	values.Set("scantext", query)
	values.Set("json", "1")

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
		return nil, fmt.Errorf("geocode.xyz returned status %d", resp.StatusCode)
	}

	var payload struct {
		Latt     string `json:"latt"`
		Longt    string `json:"longt"`
		Standard struct {
			City        string `json:"city"`
			CountryName string `json:"countryname"`
		} `json:"standard"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	lat, latErr := strconv.ParseFloat(payload.Latt, 64)
	lon, lonErr := strconv.ParseFloat(payload.Longt, 64)
	if latErr != nil || lonErr != nil {
		return nil, nil
	}
	// (0, 0) is geocode.xyz's way of saying "not found".
	if lat == 0 && lon == 0 {
		return nil, nil
	}

	loc := &geo.Location{
		Name:      common.FirstNonEmpty(payload.Standard.City, query),
		Latitude:  lat,
		Longitude: lon,
	}
	if payload.Standard.CountryName != "" {
		country := payload.Standard.CountryName
		loc.Country = &country
	}
	return loc, nil
}
