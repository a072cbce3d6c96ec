package shoko

import (
	"encoding/json"
	"strings"
	"time"
)

// SeriesIDs holds the identifiers of a Shoko series.
type SeriesIDs struct {
	ID            int `json:"ID"`
	ParentGroup   int `json:"ParentGroup"`
	TopLevelGroup int `json:"TopLevelGroup"`
	AniDB         int `json:"AniDB"`
}

// Title is an AniDB title as returned by Shoko.
type Title struct {
	Name     string `json:"Name"`
	Language string `json:"Language"`
	Type     string `json:"Type"`
	Default  bool   `json:"Default"`
	Source   string `json:"Source"`
}

// Rating is an AniDB rating as returned by Shoko.
type Rating struct {
	Value    float64 `json:"Value"`
	MaxValue float64 `json:"MaxValue"`
	Votes    int     `json:"Votes"`
	Source   string  `json:"Source"`
}

// Date is a calendar date in the yyyy-mm-dd form Shoko uses. Empty and null
// values decode to the zero Date.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts yyyy-mm-dd, RFC 3339 or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.Time = time.Time{}
		return nil
	}
	value := strings.TrimSpace(*raw)
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		d.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return err
	}
	d.Time = parsed.UTC()
	return nil
}

// Ptr returns nil for the zero date.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// AniDBSeries is the AniDB block of a Shoko series.
type AniDBSeries struct {
	ID          int     `json:"ID"`
	Type        string  `json:"Type"`
	Title       string  `json:"Title"`
	Titles      []Title `json:"Titles"`
	Description string  `json:"Description"`
	Rating      *Rating `json:"Rating"`
	AirDate     Date    `json:"AirDate"`
	EndDate     Date    `json:"EndDate"`
}

// EpisodeCounts counts episodes per type.
type EpisodeCounts struct {
	Episodes int `json:"Episodes"`
	Specials int `json:"Specials"`
	Others   int `json:"Others"`
}

// SeriesSizes summarizes a series' episodes.
type SeriesSizes struct {
	Total EpisodeCounts `json:"Total"`
}

// Series is a Shoko series.
type Series struct {
	IDs   SeriesIDs    `json:"IDs"`
	Name  string       `json:"Name"`
	AniDB *AniDBSeries `json:"AniDB"`
	Sizes SeriesSizes  `json:"Sizes"`
}

// Tag is a Shoko series tag.
type Tag struct {
	ID     int    `json:"ID"`
	Name   string `json:"Name"`
	Weight int    `json:"Weight"`
	Source string `json:"Source"`
}

// CastName is the person or character portion of a cast entry.
type CastName struct {
	Name  string `json:"Name"`
	Image *struct {
		ID     string `json:"ID"`
		Source string `json:"Source"`
	} `json:"Image"`
}

// Cast is a credit on a Shoko series.
type Cast struct {
	Character   *CastName `json:"Character"`
	Staff       CastName  `json:"Staff"`
	RoleName    string    `json:"RoleName"`
	RoleDetails string    `json:"RoleDetails"`
}

// GroupIDs holds the identifiers of a Shoko group.
type GroupIDs struct {
	ID            int  `json:"ID"`
	MainSeries    int  `json:"MainSeries"`
	ParentGroup   *int `json:"ParentGroup"`
	TopLevelGroup int  `json:"TopLevelGroup"`
}

// Group is a Shoko group of related series.
type Group struct {
	IDs  GroupIDs `json:"IDs"`
	Name string   `json:"Name"`
	Size int      `json:"Size"`
}
