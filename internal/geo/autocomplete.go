package geo

import (
	"context"
	"math"
	"strings"

	"github.com/i474232898/weather-solar-forecast/internal/logger"
)

// minQueryLen is the minimum query length for autocomplete.
const minQueryLen = 2

// Autocomplete collects ranked place suggestions from providers in speed
// order, stopping early once enough candidates are collected.
type Autocomplete struct {
	suggesters []Suggester
	limit      int
}

// NewAutocomplete creates an Autocomplete over the given providers,
// fastest first. limit caps the number of returned suggestions.
func NewAutocomplete(suggesters []Suggester, limit int) *Autocomplete {
	if limit <= 0 {
		limit = 8
	}
	return &Autocomplete{
		suggesters: suggesters,
		limit:      limit,
	}
}

// Suggest never fails: provider errors degrade to empty result sets and
// total failure yields an empty list. Candidates whose coordinates round
// to the same 3-decimal-degree grid cell are deduplicated, first seen wins.
func (a *Autocomplete) Suggest(ctx context.Context, query string) []Suggestion {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLen {
		return []Suggestion{}
	}

	var collected []Suggestion
	for _, s := range a.suggesters {
		if len(collected) >= a.limit {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
		results, err := s.Suggest(callCtx, query, a.limit)
		cancel()
		if err != nil {
			logger.Warnf("autocomplete provider %s failed for %q: %v", s.Name(), query, err)
			continue
		}
		collected = append(collected, results...)
	}

	return dedupeSuggestions(collected, a.limit)
}

// dedupeSuggestions removes candidates sharing a ~100 m grid cell.
func dedupeSuggestions(all []Suggestion, limit int) []Suggestion {
	type cell struct{ lat, lon float64 }

	seen := make(map[cell]struct{}, len(all))
	unique := make([]Suggestion, 0, limit)

	for _, s := range all {
		key := cell{lat: round3(s.Latitude), lon: round3(s.Longitude)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
		if len(unique) >= limit {
			break
		}
	}
	return unique
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
