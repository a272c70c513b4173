package geo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tj/assert"
)

type stubGeocoder struct {
	name  string
	calls []string
	fn    func(query string) (*Location, error)
}

func (s *stubGeocoder) Name() string { return s.name }

func (s *stubGeocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	s.calls = append(s.calls, query)
	return s.fn(query)
}

type stubReverse struct {
	name string
	fn   func(lat, lon float64) (*Location, error)
}

func (s *stubReverse) Name() string { return s.name }

func (s *stubReverse) ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error) {
	return s.fn(lat, lon)
}

func TestQueryVariants(t *testing.T) {
	variants := queryVariants("Pune")

	assert.Equal(t, "Pune", variants[0])
	assert.Equal(t, len(countrySuffixes)+1, len(variants))
	assert.Equal(t, "Pune, India", variants[1])

	// Queries already carrying a comma get no variants.
	assert.Equal(t, []string{"Pune, India"}, queryVariants("Pune, India"))
}

func TestResolveAdvancesPastFailingProviders(t *testing.T) {
	failing := &stubGeocoder{name: "down", fn: func(string) (*Location, error) {
		return nil, errors.New("upstream down")
	}}
	empty := &stubGeocoder{name: "empty", fn: func(string) (*Location, error) {
		return nil, nil
	}}
	working := &stubGeocoder{name: "up", fn: func(query string) (*Location, error) {
		return &Location{Name: "Pune", Latitude: 18.52, Longitude: 73.85}, nil
	}}

	r := NewResolver([]Geocoder{failing, empty, working}, nil)
	loc, err := r.Resolve(context.Background(), "Pune, India")

	assert.NoError(t, err)
	assert.Equal(t, "Pune", loc.Name)
	assert.Equal(t, []string{"Pune, India"}, working.calls)
}

func TestResolveTriesCountryVariants(t *testing.T) {
	g := &stubGeocoder{name: "picky", fn: func(query string) (*Location, error) {
		if query == "Springfield, USA" {
			return &Location{Name: "Springfield", Latitude: 39.8, Longitude: -89.6}, nil
		}
		return nil, nil
	}}

	r := NewResolver([]Geocoder{g}, nil)
	loc, err := r.Resolve(context.Background(), "Springfield")

	assert.NoError(t, err)
	assert.Equal(t, "Springfield", loc.Name)
	// The bare query and the ", India" variant were tried first.
	assert.Equal(t, []string{"Springfield", "Springfield, India", "Springfield, USA"}, g.calls)
}

func TestResolveNotFoundCarriesGuidance(t *testing.T) {
	g := &stubGeocoder{name: "empty", fn: func(string) (*Location, error) { return nil, nil }}

	r := NewResolver([]Geocoder{g}, nil)
	_, err := r.Resolve(context.Background(), "Nowhereville, Atlantis")

	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.True(t, strings.Contains(err.Error(), "more specific address"))
}

func TestResolveEmptyTextFails(t *testing.T) {
	r := NewResolver(nil, nil)
	_, err := r.Resolve(context.Background(), "   ")
	assert.Error(t, err)
}

func TestResolveCoordinatesFallsBackToFormattedPair(t *testing.T) {
	down := &stubReverse{name: "down", fn: func(lat, lon float64) (*Location, error) {
		return nil, errors.New("unreachable")
	}}

	r := NewResolver(nil, []ReverseGeocoder{down})
	loc := r.ResolveCoordinates(context.Background(), 0, 0)

	assert.Equal(t, "0.0000, 0.0000", loc.Name)
	assert.Equal(t, 0.0, loc.Latitude)
	assert.Nil(t, loc.Country)
}

func TestResolveCoordinatesUsesProviderName(t *testing.T) {
	rev := &stubReverse{name: "up", fn: func(lat, lon float64) (*Location, error) {
		return &Location{Name: "Pune, Maharashtra, India"}, nil
	}}

	r := NewResolver(nil, []ReverseGeocoder{rev})
	loc := r.ResolveCoordinates(context.Background(), 18.52, 73.85)

	assert.Equal(t, "Pune, Maharashtra, India", loc.Name)
	assert.Equal(t, 18.52, loc.Latitude)
	assert.Equal(t, 73.85, loc.Longitude)
}
