package catalog

import "context"

// ShowInfo is a logical show composed of one or more catalog seasons, keyed by
// the library's sequential season numbers.
type ShowInfo struct {
	ID      string
	GroupID string
	Name    string

	seasons     []*SeasonInfo
	byNumber    map[int]*SeasonInfo
	baseNumbers map[string]int
}

// ShowProvider resolves a series identifier into its show aggregate. Missing
// shows are reported with an error wrapping services.ErrNotFound.
type ShowProvider interface {
	ShowInfoForSeries(ctx context.Context, seriesID string) (*ShowInfo, error)
}

// NewShowInfo numbers the given seasons from 1 in order. A season with
// alternate episodes occupies two consecutive numbers: its base number and
// the following alternate slot.
func NewShowInfo(id, groupID, name string, seasons []*SeasonInfo) *ShowInfo {
	show := &ShowInfo{
		ID:          id,
		GroupID:     groupID,
		Name:        name,
		byNumber:    make(map[int]*SeasonInfo, len(seasons)),
		baseNumbers: make(map[string]int, len(seasons)),
	}
	next := 1
	for _, season := range seasons {
		if season == nil {
			continue
		}
		if _, dup := show.baseNumbers[season.ID]; dup {
			continue
		}
		show.seasons = append(show.seasons, season)
		show.baseNumbers[season.ID] = next
		show.byNumber[next] = season
		next++
		if season.HasAlternateEpisodes {
			show.byNumber[next] = season
			next++
		}
	}
	return show
}

// Seasons returns the distinct seasons in library order.
func (s *ShowInfo) Seasons() []*SeasonInfo {
	if s == nil {
		return nil
	}
	out := make([]*SeasonInfo, len(s.seasons))
	copy(out, s.seasons)
	return out
}

// SeasonByNumber returns the season occupying library season number n.
func (s *ShowInfo) SeasonByNumber(n int) (*SeasonInfo, bool) {
	if s == nil {
		return nil, false
	}
	season, ok := s.byNumber[n]
	return season, ok
}

// BaseSeasonNumberFor returns the library number at which season starts.
func (s *ShowInfo) BaseSeasonNumberFor(season *SeasonInfo) (int, bool) {
	if s == nil || season == nil {
		return 0, false
	}
	n, ok := s.baseNumbers[season.ID]
	return n, ok
}
