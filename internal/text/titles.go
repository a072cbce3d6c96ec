package text

import (
	"strings"

	xlanguage "golang.org/x/text/language"

	"shokofin/internal/catalog"
	"shokofin/internal/language"
)

// AlternateEpisodesSuffix marks the second library slot of a season that
// carries alternate episodes.
const AlternateEpisodesSuffix = " (Alternate Episodes)"

// SeasonTitles returns the display title and the alternate (original) title
// for a season. The display title is the official title that best matches
// metadataLanguage, falling back to the catalog main title. The alternate
// title is always the main title. An offset of 1 marks the alternate episodes
// slot and suffixes both titles.
func SeasonTitles(info *catalog.SeasonInfo, offset int, metadataLanguage string) (string, string) {
	if info == nil {
		return "", ""
	}
	main := info.MainTitle()
	display := main.Value
	if title, ok := PreferredTitle(info.AniDB.Titles, metadataLanguage); ok {
		display = title.Value
	}
	alternate := main.Value
	if offset == 1 {
		display = withSuffix(display)
		alternate = withSuffix(alternate)
	}
	return display, alternate
}

// PreferredTitle picks the official or main title whose language best matches
// metadataLanguage. Romanized titles never match a host language.
func PreferredTitle(titles []catalog.Title, metadataLanguage string) (catalog.Title, bool) {
	wanted := strings.TrimSpace(metadataLanguage)
	if wanted == "" {
		return catalog.Title{}, false
	}
	if language.IsRomanized(wanted) {
		for _, title := range titles {
			if title.Type == catalog.TitleMain && strings.TrimSpace(title.Value) != "" {
				return title, true
			}
		}
		return catalog.Title{}, false
	}
	want, err := xlanguage.Parse(language.Normalize(wanted))
	if err != nil {
		return catalog.Title{}, false
	}

	var (
		tags       []xlanguage.Tag
		candidates []catalog.Title
	)
	for _, typ := range []string{catalog.TitleOfficial, catalog.TitleMain} {
		for _, title := range titles {
			if title.Type != typ || strings.TrimSpace(title.Value) == "" {
				continue
			}
			code := language.Normalize(title.Language)
			if code == "" || strings.HasPrefix(code, "x-") {
				continue
			}
			tag, err := xlanguage.Parse(code)
			if err != nil {
				continue
			}
			tags = append(tags, tag)
			candidates = append(candidates, title)
		}
	}
	if len(tags) == 0 {
		return catalog.Title{}, false
	}

	matcher := xlanguage.NewMatcher(tags)
	_, index, confidence := matcher.Match(want)
	if confidence == xlanguage.No || index < 0 || index >= len(candidates) {
		return catalog.Title{}, false
	}
	return candidates[index], true
}

func withSuffix(title string) string {
	if title == "" || strings.HasSuffix(title, AlternateEpisodesSuffix) {
		return title
	}
	return title + AlternateEpisodesSuffix
}
