package geo

import (
	"context"
	"fmt"
)

// Location is a resolved place. Country and Elevation are genuinely
// optional: most providers never populate them.
type Location struct {
	Name      string
	Country   *string
	Latitude  float64
	Longitude float64
	Elevation *float64
}

// Suggestion is a single autocomplete candidate.
type Suggestion struct {
	DisplayName string   `json:"display_name"`
	Name        string   `json:"name"`
	Country     *string  `json:"country,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Source      string   `json:"source,omitempty"`
}

// Geocoder converts free-text place descriptions to coordinates.
// A nil Location with a nil error means "no match"; callers advance
// to the next provider in their priority list.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Location, error)
}

// ReverseGeocoder converts coordinates to a place description.
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
}

// Suggester returns ranked autocomplete candidates for a query.
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

// NotFoundError is returned when every provider/variant combination failed
// to resolve a query. Its message carries guidance for the caller.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(
		"could not find location %q using any geocoding service; please try a more specific address (e.g. 'Pune, India' or 'Baner, Pune'), include the country name, check the spelling, or try a nearby landmark or city",
		e.Query,
	)
}
