// Package contentrating derives a parental rating for a season from its
// catalog tags.
package contentrating

import (
	"strings"

	"shokofin/internal/catalog"
)

// US TV Parental Guidelines ratings, in ascending order of restriction.
const (
	TVY   = "TV-Y"
	TVY7  = "TV-Y7"
	TVG   = "TV-G"
	TVPG  = "TV-PG"
	TV14  = "TV-14"
	TVMA  = "TV-MA"
	XXX   = "XXX"
	unset = ""
)

var order = map[string]int{unset: 0, TVY: 1, TVY7: 2, TVG: 3, TVPG: 4, TV14: 5, TVMA: 6, XXX: 7}

var audienceRatings = map[string]string{
	"kodomo":  TVY,
	"mina":    TVG,
	"shoujo":  TVPG,
	"shounen": TVPG,
	"josei":   TV14,
	"seinen":  TV14,
}

// indicator raises the rating once a content tag reaches a weight. Weights use
// the catalog's 0 to 600 scale.
type indicator struct {
	tag    string
	weight int
	rating string
}

var indicators = []indicator{
	{"violence", 200, TVPG},
	{"violence", 400, TV14},
	{"violence", 500, TVMA},
	{"nudity", 200, TVPG},
	{"nudity", 400, TV14},
	{"sex", 200, TV14},
	{"sex", 400, TVMA},
	{"gore", 300, TVMA},
}

const restrictedTag = "18 restricted"

// SeasonContentRating returns the rating for the season in the given country.
// Only US ratings are derived; other countries yield "".
func SeasonContentRating(info *catalog.SeasonInfo, countryCode string) string {
	if info == nil {
		return ""
	}
	switch strings.ToUpper(strings.TrimSpace(countryCode)) {
	case "", "US":
	default:
		return ""
	}
	return usRating(info.RawTags)
}

func usRating(tags []catalog.Tag) string {
	rating := unset
	for _, tag := range tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == restrictedTag {
			return XXX
		}
		if audience, ok := audienceRatings[name]; ok {
			rating = higher(rating, audience)
		}
		for _, ind := range indicators {
			if ind.tag == name && tag.Weight >= ind.weight {
				rating = higher(rating, ind.rating)
			}
		}
	}
	return rating
}

func higher(a, b string) string {
	if order[b] > order[a] {
		return b
	}
	return a
}
