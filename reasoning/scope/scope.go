// Package scope detects whether a query falls within the system's
// energy/subsurface domain, so out-of-scope questions can be defused rather
// than hallucinated against.
package scope

import "strings"

var inScopeTopics = map[string][]string{
	"energy_production": {"oil", "gas", "petroleum", "hydrocarbon", "production", "well", "operator", "eia", "energy information", "fossil fuel", "drilling", "reservoir"},
	"subsurface_geology": {"formation", "lithology", "well log", "las", "gamma ray", "porosity", "density", "resistivity", "neutron", "sonic", "curve", "borehole", "downhole", "geophysical"},
	"surface_water":      {"streamflow", "discharge", "gage", "usgs", "hydrological", "river", "water level", "monitoring", "measurement", "flow rate"},
	"geospatial":         {"location", "coordinates", "indiana", "illinois", "kansas", "county", "state", "latitude", "longitude", "site"},
}

var outOfScopeTopics = map[string][]string{
	"politics":      {"election", "president", "congress", "vote", "campaign", "senator", "parliament", "government policy"},
	"food":          {"recipe", "cooking", "ingredient", "meal", "restaurant", "chef", "cuisine", "dinner"},
	"entertainment": {"movie", "song", "actor", "album", "concert", "film", "tv show", "celebrity"},
	"weather":       {"weather", "forecast", "temperature", "rain", "precipitation", "climate", "snow", "sunny"},
	"sports":        {"game", "score", "team", "player", "championship", "league", "tournament", "match"},
	"finance":       {"price", "stock", "market", "investment", "bitcoin", "cryptocurrency", "trading"},
	"other_domains": {"medical", "healthcare", "legal", "retail", "agriculture"},
}

// an order over outOfScopeTopics keys gives deterministic "first match" tie
// breaking, matching a dict-insertion-order semantics.
var outOfScopeOrder = []string{"politics", "food", "entertainment", "weather", "sports", "finance", "other_domains"}

var inScopeOrder = []string{"energy_production", "subsurface_geology", "surface_water", "geospatial"}

// Result is the outcome of a scope check.
type Result struct {
	InScope         bool
	Confidence      float64
	Category        string
	DefusionMessage string
}

// Check classifies query as in-scope or out-of-scope using keyword matching.
// Out-of-scope keyword hits take precedence over in-scope ones, matching the
// source system's defusion-first posture.
func Check(query string) Result {
	lower := strings.ToLower(query)

	for _, category := range outOfScopeOrder {
		for _, keyword := range outOfScopeTopics[category] {
			if strings.Contains(lower, keyword) {
				return Result{
					InScope:         false,
					Confidence:      0.9,
					Category:        category,
					DefusionMessage: DefusionMessage(category),
				}
			}
		}
	}

	for _, category := range inScopeOrder {
		for _, keyword := range inScopeTopics[category] {
			if strings.Contains(lower, keyword) {
				return Result{InScope: true, Confidence: 0.8, Category: category}
			}
		}
	}

	return Result{InScope: true, Confidence: 0.5}
}

// DefusionMessage names category in a polite refusal.
func DefusionMessage(category string) string {
	return "This question appears to be about " + category + ", which is outside the scope of this system. This system contains geological, hydrological, and energy production data. Please ask questions related to well logs, energy production, or surface water monitoring."
}
