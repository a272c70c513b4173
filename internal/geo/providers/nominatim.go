package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-solar-forecast/internal/common"
	"github.com/i474232898/weather-solar-forecast/internal/geo"
)

// nominatimUserAgent identifies this service to the OSM servers, which
// require a descriptive User-Agent.
const nominatimUserAgent = "weather-solar-forecast/1.0"

// NominatimProvider queries the free OpenStreetMap Nominatim API. Calls are
// paced through a shared 1 req/s limiter per the Nominatim usage policy.
type NominatimProvider struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewNominatimProvider(client *http.Client) *NominatimProvider {
	return &NominatimProvider{
		name:    "nominatim",
		baseURL: "https://nominatim.openstreetmap.org",
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

type nominatimAddress struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Suburb      string `json:"suburb"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

type nominatimResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     nominatimAddress  `json:"address"`
	ExtraTags   map[string]string `json:"extratags"`
}

func (p *NominatimProvider) get(ctx context.Context, path string, values url.Values, out interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limit wait canceled: %w", err)
	}

	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Geocode returns the first search result with parseable coordinates.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*geo.Location, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("limit", "5")
	values.Set("addressdetails", "1")
	values.Set("extratags", "1")

	var results []nominatimResult
	if err := p.get(ctx, "/search", values, &results); err != nil {
		return nil, err
	}

	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		name := strings.SplitN(r.DisplayName, ",", 2)[0]
		loc := &geo.Location{
			Name:      common.FirstNonEmpty(name, query),
			Latitude:  lat,
			Longitude: lon,
		}
		if country := common.FirstNonEmpty(r.Address.Country, r.Address.CountryCode); country != "" {
			loc.Country = &country
		}
		if elevStr, ok := r.ExtraTags["elevation"]; ok {
			if elev, err := strconv.ParseFloat(elevStr, 64); err == nil {
				loc.Elevation = &elev
			}
		}
		return loc, nil
	}
	return nil, nil
}

// ReverseGeocode builds a readable "city, state, country" name from the
// address components of the reverse lookup.
func (p *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Location, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("format", "json")
	values.Set("addressdetails", "1")

	var result nominatimResult
	if err := p.get(ctx, "/reverse", values, &result); err != nil {
		return nil, err
	}
	if result.DisplayName == "" && result.Address == (nominatimAddress{}) {
		return nil, nil
	}

	city := common.FirstNonEmpty(
		result.Address.City,
		result.Address.Town,
		result.Address.Village,
		result.Address.Suburb,
	)

	state := result.Address.State
	if state == city {
		state = ""
	}
	name := common.JoinNonEmpty(", ", city, state, result.Address.Country)
	if name == "" {
		name = strings.SplitN(result.DisplayName, ",", 2)[0]
	}
	if name == "" {
		return nil, nil
	}

	loc := &geo.Location{
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
	}
	if result.Address.Country != "" {
		country := result.Address.Country
		loc.Country = &country
	}
	return loc, nil
}

// Suggest returns up to limit search results as candidates.
func (p *NominatimProvider) Suggest(ctx context.Context, query string, limit int) ([]geo.Suggestion, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("limit", fmt.Sprintf("%d", limit))
	values.Set("addressdetails", "1")

	var results []nominatimResult
	if err := p.get(ctx, "/search", values, &results); err != nil {
		return nil, err
	}

	suggestions := make([]geo.Suggestion, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		name := common.FirstNonEmpty(
			r.Address.City,
			r.Address.Town,
			r.Address.Village,
			strings.SplitN(r.DisplayName, ",", 2)[0],
		)
		s := geo.Suggestion{
			DisplayName: r.DisplayName,
			Name:        name,
			Latitude:    lat,
			Longitude:   lon,
			Source:      p.name,
		}
		if country := common.FirstNonEmpty(r.Address.Country, strings.ToUpper(r.Address.CountryCode)); country != "" {
			s.Country = &country
		}
		suggestions = append(suggestions, s)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions, nil
}
