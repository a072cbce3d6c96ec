package catalog

import "time"

// Title types reported by the catalog.
const (
	TitleMain     = "main"
	TitleOfficial = "official"
	TitleSynonym  = "synonym"
	TitleShort    = "short"
)

// Person types attached to a season's staff list.
const (
	PersonActor     = "Actor"
	PersonDirector  = "Director"
	PersonWriter    = "Writer"
	PersonComposer  = "Composer"
	PersonProducer  = "Producer"
	PersonGuestStar = "GuestStar"
)

// Title is one localized title of a catalog series.
type Title struct {
	Language string `json:"language"`
	Type     string `json:"type"`
	Value    string `json:"value"`
}

// Rating is a catalog community rating on an arbitrary scale.
type Rating struct {
	Value    float64 `json:"value"`
	MaxValue float64 `json:"max_value"`
	Votes    int     `json:"votes"`
}

// ToFloat rescales the rating onto [0, scale]. It reports false when the
// rating has no usable scale.
func (r Rating) ToFloat(scale float64) (float64, bool) {
	if r.MaxValue <= 0 {
		return 0, false
	}
	return r.Value * scale / r.MaxValue, true
}

// Tag is a raw catalog tag. Weight is 0 for tags that carry no weighting.
type Tag struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Weight int    `json:"weight"`
}

// Person is a staff or cast member credited on a season.
type Person struct {
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type"`
	ImageURL string `json:"image_url,omitempty"`
}

// ShokoRef identifies the season on the Shoko side.
type ShokoRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AniDBInfo is the AniDB portion of a catalog season.
type AniDBInfo struct {
	ID          int        `json:"id"`
	Type        string     `json:"type"`
	Titles      []Title    `json:"titles"`
	Description string     `json:"description"`
	AirDate     *time.Time `json:"air_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Rating      *Rating    `json:"rating,omitempty"`
}

// SeasonInfo is one catalog series presented as a library season. Values are
// treated as immutable once built.
type SeasonInfo struct {
	ID                   string    `json:"id"`
	Shoko                ShokoRef  `json:"shoko"`
	AniDB                AniDBInfo `json:"anidb"`
	Tags                 []string  `json:"tags"`
	Genres               []string  `json:"genres"`
	Studios              []string  `json:"studios"`
	RawTags              []Tag     `json:"raw_tags"`
	Staff                []Person  `json:"staff"`
	HasAlternateEpisodes bool      `json:"has_alternate_episodes"`
	// Overviews holds localized descriptions keyed by Title.Language.
	Overviews []Title `json:"overviews,omitempty"`
}

// MainTitle returns the catalog main title, falling back to the Shoko name.
func (s *SeasonInfo) MainTitle() Title {
	for _, title := range s.AniDB.Titles {
		if title.Type == TitleMain {
			return title
		}
	}
	return Title{Type: TitleMain, Value: s.Shoko.Name}
}
