// Package normalize turns free-text chat input into typed booking values.
// Every parser here is a pure function of its input.
package normalize

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultCityThreshold is the minimum similarity for a fuzzy city match.
const DefaultCityThreshold float32 = 0.70

// DefaultCities maps lower-case city names (and common aliases) to IATA codes.
var DefaultCities = map[string]string{
	"mumbai":    "BOM",
	"delhi":     "DEL",
	"bengaluru": "BLR",
	"bangalore": "BLR",
	"hyderabad": "HYD",
	"goa":       "GOI",
}

type CityResolver struct {
	cities    map[string]string
	names     []string
	threshold float32
}

type CityOption func(*CityResolver)

func WithCityThreshold(threshold float32) CityOption {
	return func(r *CityResolver) {
		r.threshold = threshold
	}
}

func NewCityResolver(cities map[string]string, opts ...CityOption) *CityResolver {
	r := &CityResolver{
		cities:    make(map[string]string, len(cities)),
		threshold: DefaultCityThreshold,
	}
	for name, code := range cities {
		key := strings.ToLower(strings.TrimSpace(name))
		r.cities[key] = code
		r.names = append(r.names, key)
	}
	// stable iteration keeps ties deterministic
	sort.Strings(r.names)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the location code for a city name. Exact matches win;
// otherwise the most similar known city is used if it clears the threshold.
func (r *CityResolver) Resolve(text string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(text))
	if name == "" {
		return "", false
	}
	if code, ok := r.cities[name]; ok {
		return code, true
	}

	best, bestScore := "", float32(0)
	for _, candidate := range r.names {
		score, err := edlib.StringsSimilarity(name, candidate, edlib.OSADamerauLevenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == "" || bestScore < r.threshold {
		return "", false
	}
	return r.cities[best], true
}
