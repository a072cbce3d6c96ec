package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"shokofin/internal/catalog"
)

var (
	anidbLinkPattern    = regexp.MustCompile(`https?://anidb\.net/[a-z]{1,2}\d+\s*\[([^\]]+)\]`)
	footnoteLinePattern = regexp.MustCompile(`(?im)^\s*(?:\*\s*)?(?:source|note|summary|based on)\s*:.*$`)
	blankLinesPattern   = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern     = regexp.MustCompile(`[ \t]{2,}`)
)

// Description returns the season overview. A localized overview matching
// metadataLanguage wins; otherwise the AniDB description is used. AniDB link
// markup is reduced to its label and source or note footers are dropped.
func Description(info *catalog.SeasonInfo, metadataLanguage string) string {
	if info == nil {
		return ""
	}
	if overview, ok := PreferredTitle(info.Overviews, metadataLanguage); ok {
		return SanitizeDescription(overview.Value)
	}
	return SanitizeDescription(info.AniDB.Description)
}

// SanitizeDescription strips AniDB markup from a description.
func SanitizeDescription(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = anidbLinkPattern.ReplaceAllString(value, "$1")
	value = footnoteLinePattern.ReplaceAllString(value, "")
	value = spaceRunPattern.ReplaceAllString(value, " ")
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	value = strings.Join(lines, "\n")
	value = blankLinesPattern.ReplaceAllString(value, "\n\n")
	return strings.TrimSpace(value)
}

// TitleCase capitalizes catalog tag names for display ("science fiction" becomes
// "Science Fiction").
func TitleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(xlanguage.English).String(value)
}
