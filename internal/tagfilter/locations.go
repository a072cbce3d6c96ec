// Package tagfilter turns catalog origin tags into production locations.
package tagfilter

import (
	"strings"

	"shokofin/internal/catalog"
	"shokofin/internal/language"
)

var originTags = map[string]string{
	"japanese production":     "Japan",
	"chinese production":      "China",
	"korean production":       "South Korea",
	"south korean production": "South Korea",
	"american production":     "United States of America",
	"french production":       "France",
	"taiwanese production":    "Taiwan",
	"thai production":         "Thailand",
	"canadian production":     "Canada",
	"british production":      "United Kingdom",
	"russian production":      "Russia",
	"german production":       "Germany",
	"italian production":      "Italy",
	"spanish production":      "Spain",
	"indian production":       "India",
	"filipino production":     "Philippines",
	"hong kong production":    "Hong Kong",
}

// SeasonProductionLocations returns the countries a season was produced in.
// Origin tags win; without any, the main title language decides.
func SeasonProductionLocations(info *catalog.SeasonInfo) []string {
	if info == nil {
		return nil
	}
	var locations []string
	seen := make(map[string]struct{})
	for _, tag := range info.RawTags {
		country, ok := originTags[strings.ToLower(strings.TrimSpace(tag.Name))]
		if !ok {
			continue
		}
		if _, dup := seen[country]; dup {
			continue
		}
		seen[country] = struct{}{}
		locations = append(locations, country)
	}
	if len(locations) > 0 {
		return locations
	}
	if country := language.OriginCountry(info.MainTitle().Language); country != "" {
		return []string{country}
	}
	return []string{}
}
