package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-solar-forecast/internal/common"
	"github.com/i474232898/weather-solar-forecast/internal/logger"
)

// Per-call budgets for outbound geocoding requests.
const (
	geocodeTimeout = 10 * time.Second
	suggestTimeout = 5 * time.Second
)

// countrySuffixes are appended to comma-free queries, in order, to widen
// the search when the bare text does not resolve.
var countrySuffixes = []string{
	"India",
	"USA",
	"United States",
	"UK",
	"United Kingdom",
	"Canada",
	"Australia",
	"Germany",
	"France",
}

// Resolver turns free text or a coordinate pair into a Location by trying
// providers in a fixed priority order.
type Resolver struct {
	geocoders []Geocoder
	reverse   []ReverseGeocoder
}

// NewResolver creates a Resolver. Both lists are tried front to back.
func NewResolver(geocoders []Geocoder, reverse []ReverseGeocoder) *Resolver {
	return &Resolver{
		geocoders: geocoders,
		reverse:   reverse,
	}
}

// Resolve geocodes free-form text. Every provider is tried for the original
// text plus country-suffixed variants; the first coordinate-bearing result
// wins. When everything fails a NotFoundError is returned.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Location, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, &NotFoundError{Query: text}
	}

	for _, variant := range queryVariants(query) {
		for _, g := range r.geocoders {
			loc, err := r.geocodeOnce(ctx, g, variant)
			if err != nil {
				logger.Warnf("geocoder %s failed for %q: %v", g.Name(), variant, err)
				continue
			}
			if loc == nil {
				continue
			}
			logger.WithFields(map[string]interface{}{
				"provider": g.Name(),
				"query":    query,
				"resolved": loc.Name,
			}).Info("geocoded location")
			return loc, nil
		}
	}

	return nil, &NotFoundError{Query: query}
}

func (r *Resolver) geocodeOnce(ctx context.Context, g Geocoder, query string) (*Location, error) {
	callCtx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()
	return g.Geocode(callCtx, query)
}

// ResolveCoordinates reverse-geocodes a coordinate pair to obtain a display
// name. Provider failure is not an error here: the coordinates themselves,
// formatted, serve as a degraded display name.
func (r *Resolver) ResolveCoordinates(ctx context.Context, lat, lon float64) *Location {
	for _, rg := range r.reverse {
		callCtx, cancel := context.WithTimeout(ctx, geocodeTimeout)
		loc, err := rg.ReverseGeocode(callCtx, lat, lon)
		cancel()
		if err != nil {
			logger.Warnf("reverse geocoder %s failed for (%f, %f): %v", rg.Name(), lat, lon, err)
			continue
		}
		if loc == nil {
			continue
		}
		loc.Latitude = lat
		loc.Longitude = lon
		return loc
	}

	return &Location{
		Name:      FormatCoordinates(lat, lon),
		Latitude:  lat,
		Longitude: lon,
	}
}

// FormatCoordinates renders a coordinate pair as the degraded display name.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

// queryVariants returns the original query followed by country-suffixed
// variants when the query carries no comma of its own.
func queryVariants(query string) []string {
	variants := []string{query}
	if common.HasAny(query, ",") {
		return variants
	}
	for _, suffix := range countrySuffixes {
		variants = append(variants, query+", "+suffix)
	}
	return variants
}
