package season

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"shokofin/internal/catalog"
	"shokofin/internal/contentrating"
	"shokofin/internal/tagfilter"
	"shokofin/internal/text"
)

// Provider id keys attached to synthesized seasons.
const (
	ProviderShokoSeries = "Shoko Series"
	ProviderAniDB       = "AniDB"
)

const specialsSortPrefix = "AA - "

// Settings holds the flags consulted while synthesizing metadata.
type Settings struct {
	AddAniDBID bool `json:"add_anidb_id"`
}

// Season is a library season metadata record.
type Season struct {
	ID                          uuid.UUID         `json:"id,omitzero"`
	Name                        string            `json:"name"`
	OriginalTitle               string            `json:"original_title,omitempty"`
	IndexNumber                 int               `json:"index_number"`
	SortName                    string            `json:"sort_name"`
	ForcedSortName              string            `json:"forced_sort_name"`
	IsVirtualItem               bool              `json:"is_virtual_item,omitempty"`
	Overview                    string            `json:"overview,omitempty"`
	PremiereDate                *time.Time        `json:"premiere_date,omitempty"`
	EndDate                     *time.Time        `json:"end_date,omitempty"`
	ProductionYear              *int              `json:"production_year,omitempty"`
	Tags                        []string          `json:"tags,omitempty"`
	Genres                      []string          `json:"genres,omitempty"`
	Studios                     []string          `json:"studios,omitempty"`
	ProductionLocations         []string          `json:"production_locations,omitempty"`
	OfficialRating              string            `json:"official_rating,omitempty"`
	CommunityRating             *float64          `json:"community_rating,omitempty"`
	ProviderIDs                 map[string]string `json:"provider_ids,omitempty"`
	SeriesID                    uuid.UUID         `json:"series_id,omitzero"`
	SeriesName                  string            `json:"series_name,omitempty"`
	SeriesPresentationUniqueKey string            `json:"series_presentation_unique_key,omitempty"`
	DateModified                time.Time         `json:"date_modified,omitzero"`
	DateLastSaved               time.Time         `json:"date_last_saved,omitzero"`
}

// ProviderID returns the id stored under provider.
func (s *Season) ProviderID(provider string) (string, bool) {
	if s == nil {
		return "", false
	}
	id, ok := s.ProviderIDs[provider]
	return id, ok
}

// SeriesRef is the existing library series a season is attached to.
type SeriesRef struct {
	ID                           uuid.UUID `json:"id"`
	Name                         string    `json:"name"`
	PresentationUniqueKey        string    `json:"presentation_unique_key,omitempty"`
	PreferredMetadataLanguage    string    `json:"preferred_metadata_language,omitempty"`
	PreferredMetadataCountryCode string    `json:"preferred_metadata_country_code,omitempty"`
}

// Builder synthesizes season records from catalog seasons.
type Builder struct {
	Settings Settings
	// Now defaults to time.Now.
	Now func() time.Time
}

// CreateMetadata builds a standalone season record.
func (b Builder) CreateMetadata(info *catalog.SeasonInfo, seasonNumber, offset int, metadataLanguage, metadataCountryCode string) *Season {
	return b.build(info, seasonNumber, offset, metadataLanguage, metadataCountryCode)
}

// CreateMetadataForSeries builds a season record attached to an existing
// series, reusing seasonID and the series' preferred locale.
func (b Builder) CreateMetadataForSeries(info *catalog.SeasonInfo, seasonNumber, offset int, series SeriesRef, seasonID uuid.UUID) *Season {
	season := b.build(info, seasonNumber, offset, series.PreferredMetadataLanguage, series.PreferredMetadataCountryCode)
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	stamp := now().UTC()
	season.ID = seasonID
	season.IsVirtualItem = true
	season.SeriesID = series.ID
	season.SeriesName = series.Name
	season.SeriesPresentationUniqueKey = series.PresentationUniqueKey
	season.DateModified = stamp
	season.DateLastSaved = stamp
	return season
}

func (b Builder) build(info *catalog.SeasonInfo, seasonNumber, offset int, metadataLanguage, metadataCountryCode string) *Season {
	displayTitle, alternateTitle := text.SeasonTitles(info, offset, metadataLanguage)
	sortTitle := fmt.Sprintf("S%d - %s", seasonNumber, info.Shoko.Name)
	season := &Season{
		Name:                displayTitle,
		OriginalTitle:       alternateTitle,
		IndexNumber:         seasonNumber,
		SortName:            sortTitle,
		ForcedSortName:      sortTitle,
		Overview:            text.Description(info, metadataLanguage),
		PremiereDate:        info.AniDB.AirDate,
		EndDate:             info.AniDB.EndDate,
		Tags:                cloneStrings(info.Tags),
		Genres:              cloneStrings(info.Genres),
		Studios:             cloneStrings(info.Studios),
		ProductionLocations: tagfilter.SeasonProductionLocations(info),
		OfficialRating:      contentrating.SeasonContentRating(info, metadataCountryCode),
		ProviderIDs:         map[string]string{ProviderShokoSeries: info.ID},
	}
	if info.AniDB.AirDate != nil {
		year := info.AniDB.AirDate.Year()
		season.ProductionYear = &year
	}
	if info.AniDB.Rating != nil {
		if rating, ok := info.AniDB.Rating.ToFloat(10); ok {
			season.CommunityRating = &rating
		}
	}
	if b.Settings.AddAniDBID {
		season.ProviderIDs[ProviderAniDB] = fmt.Sprint(info.AniDB.ID)
	}
	return season
}

// specialsSeason is the record for the index 0 bucket. It carries only the
// caller's name.
func specialsSeason(name string) *Season {
	return &Season{
		Name:           name,
		IndexNumber:    0,
		SortName:       specialsSortPrefix + name,
		ForcedSortName: specialsSortPrefix + name,
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
