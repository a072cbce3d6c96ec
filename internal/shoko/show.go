package shoko

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"shokofin/internal/catalog"
	"shokofin/internal/text"
)

var _ catalog.ShowProvider = (*Client)(nil)

// genreTags are the AniDB tags surfaced as genres.
var genreTags = map[string]struct{}{
	"action":          {},
	"adventure":       {},
	"comedy":          {},
	"drama":           {},
	"ecchi":           {},
	"fantasy":         {},
	"horror":          {},
	"mecha":           {},
	"music":           {},
	"mystery":         {},
	"psychological":   {},
	"romance":         {},
	"science fiction": {},
	"slice of life":   {},
	"sports":          {},
	"supernatural":    {},
	"thriller":        {},
}

var castPersonTypes = map[string]string{
	"Seiyuu":         catalog.PersonActor,
	"Director":       catalog.PersonDirector,
	"SourceWork":     catalog.PersonWriter,
	"SeriesComposer": catalog.PersonWriter,
	"Music":          catalog.PersonComposer,
	"Producer":       catalog.PersonProducer,
}

const studioRole = "Studio"

// ShowInfoForSeries builds the show aggregate containing seriesID: the
// series' parent group and every series directly inside it, ordered by AniDB
// air date.
func (c *Client) ShowInfoForSeries(ctx context.Context, seriesID string) (*catalog.ShowInfo, error) {
	series, err := c.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	groupID := strconv.Itoa(series.IDs.ParentGroup)
	if series.IDs.ParentGroup <= 0 {
		season, err := c.SeasonInfo(ctx, *series)
		if err != nil {
			return nil, err
		}
		id := strconv.Itoa(series.IDs.ID)
		return catalog.NewShowInfo(id, "", series.Name, []*catalog.SeasonInfo{season}), nil
	}

	group, err := c.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := c.GetGroupSeries(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !containsSeries(members, series.IDs.ID) {
		members = append(members, *series)
	}
	sortByAirDate(members)

	seasons := make([]*catalog.SeasonInfo, 0, len(members))
	for _, member := range members {
		season, err := c.SeasonInfo(ctx, member)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}

	showID := strconv.Itoa(group.IDs.MainSeries)
	if group.IDs.MainSeries <= 0 {
		showID = strconv.Itoa(series.IDs.ID)
	}
	return catalog.NewShowInfo(showID, groupID, group.Name, seasons), nil
}

// SeasonInfo converts a series into a catalog season, fetching its tags and
// cast.
func (c *Client) SeasonInfo(ctx context.Context, series Series) (*catalog.SeasonInfo, error) {
	id := strconv.Itoa(series.IDs.ID)
	tags, err := c.GetSeriesTags(ctx, id)
	if err != nil {
		return nil, err
	}
	cast, err := c.GetSeriesCast(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildSeasonInfo(series, tags, cast), nil
}

// BuildSeasonInfo assembles a catalog season from already fetched data.
func BuildSeasonInfo(series Series, tags []Tag, cast []Cast) *catalog.SeasonInfo {
	id := strconv.Itoa(series.IDs.ID)
	info := &catalog.SeasonInfo{
		ID:                   id,
		Shoko:                catalog.ShokoRef{ID: id, Name: series.Name},
		Tags:                 []string{},
		Genres:               []string{},
		Studios:              []string{},
		RawTags:              make([]catalog.Tag, 0, len(tags)),
		Staff:                []catalog.Person{},
		HasAlternateEpisodes: series.Sizes.Total.Others > 0,
	}
	if anidb := series.AniDB; anidb != nil {
		info.AniDB = catalog.AniDBInfo{
			ID:          anidb.ID,
			Type:        anidb.Type,
			Titles:      convertTitles(anidb.Titles),
			Description: anidb.Description,
			AirDate:     anidb.AirDate.Ptr(),
			EndDate:     anidb.EndDate.Ptr(),
		}
		if anidb.Rating != nil {
			info.AniDB.Rating = &catalog.Rating{Value: anidb.Rating.Value, MaxValue: anidb.Rating.MaxValue, Votes: anidb.Rating.Votes}
		}
	}

	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		info.RawTags = append(info.RawTags, catalog.Tag{Name: name, Source: tag.Source, Weight: tag.Weight})
		display := text.TitleCase(name)
		if _, ok := genreTags[strings.ToLower(name)]; ok {
			info.Genres = append(info.Genres, display)
			continue
		}
		info.Tags = append(info.Tags, display)
	}

	for _, credit := range cast {
		name := strings.TrimSpace(credit.Staff.Name)
		if name == "" {
			continue
		}
		if credit.RoleName == studioRole {
			info.Studios = append(info.Studios, name)
			continue
		}
		personType, ok := castPersonTypes[credit.RoleName]
		if !ok {
			continue
		}
		person := catalog.Person{Name: name, Type: personType, Role: credit.RoleDetails}
		if personType == catalog.PersonActor && credit.Character != nil {
			person.Role = credit.Character.Name
		}
		info.Staff = append(info.Staff, person)
	}
	return info
}

func convertTitles(titles []Title) []catalog.Title {
	out := make([]catalog.Title, 0, len(titles))
	for _, title := range titles {
		out = append(out, catalog.Title{
			Language: strings.ToLower(title.Language),
			Type:     strings.ToLower(title.Type),
			Value:    title.Name,
		})
	}
	return out
}

func containsSeries(members []Series, id int) bool {
	for _, member := range members {
		if member.IDs.ID == id {
			return true
		}
	}
	return false
}

func sortByAirDate(members []Series) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := airDate(members[i]), airDate(members[j])
		switch {
		case a.IsZero() && b.IsZero():
			return members[i].IDs.ID < members[j].IDs.ID
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		case a.Equal(b.Time):
			return members[i].IDs.ID < members[j].IDs.ID
		default:
			return a.Before(b.Time)
		}
	})
}

func airDate(series Series) Date {
	if series.AniDB == nil {
		return Date{}
	}
	return series.AniDB.AirDate
}
