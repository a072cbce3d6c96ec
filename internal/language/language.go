package language

import "strings"

// Pseudo language codes used by the catalog for transliterated titles.
const (
	RomajiJapanese  = "x-jat"
	PinyinChinese   = "x-zht"
	RomanizedKorean = "x-kot"
	Other           = "x-other"
	Unknown         = "x-unk"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	country string   // Country a production in this language usually originates from
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", "", []string{"english"}},
	{"es", "spa", "", "Spanish", "", []string{"spanish"}},
	{"fr", "fra", "fre", "French", "France", []string{"french"}},
	{"de", "deu", "ger", "German", "Germany", []string{"german"}},
	{"it", "ita", "", "Italian", "Italy", []string{"italian"}},
	{"pt", "por", "", "Portuguese", "", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", "Japan", []string{"japanese"}},
	{"ko", "kor", "", "Korean", "South Korea", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", "China", []string{"chinese"}},
	{"ru", "rus", "", "Russian", "Russia", []string{"russian"}},
	{"ar", "ara", "", "Arabic", "", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", "India", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", "Netherlands", []string{"dutch"}},
	{"pl", "pol", "", "Polish", "Poland", []string{"polish"}},
	{"sv", "swe", "", "Swedish", "Sweden", []string{"swedish"}},
	{"da", "dan", "", "Danish", "Denmark", []string{"danish"}},
	{"no", "nor", "", "Norwegian", "Norway", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", "Finland", []string{"finnish"}},
	{"th", "tha", "", "Thai", "Thailand", []string{"thai"}},
}

// romanizations maps each pseudo language to the language it transliterates.
var romanizations = map[string]string{
	RomajiJapanese:  "ja",
	PinyinChinese:   "zh",
	RomanizedKorean: "ko",
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if base, ok := romanizations[code]; ok {
		code = base
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize lowercases a catalog language code, keeping pseudo languages
// intact and folding 3-letter and word forms onto ISO 639-1.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "_", "-")))
	if code == "" {
		return ""
	}
	if strings.HasPrefix(code, "x-") {
		return code
	}
	if mapped := ToISO2(code); mapped != "" {
		return mapped
	}
	return code
}

// IsRomanized reports whether code is a transliteration pseudo language.
func IsRomanized(code string) bool {
	_, ok := romanizations[Normalize(code)]
	return ok
}

// Base returns the language a code is written in, resolving pseudo languages
// to the language they transliterate. Unknown pseudo languages return "".
func Base(code string) string {
	normalized := Normalize(code)
	if base, ok := romanizations[normalized]; ok {
		return base
	}
	if strings.HasPrefix(normalized, "x-") {
		return ""
	}
	return normalized
}

// OriginCountry returns the country a title in the given language most likely
// originates from, or "" when the language does not identify one.
func OriginCountry(code string) string {
	if e := lookup(code); e != nil {
		return e.country
	}
	return ""
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter).
// Returns "und" for unrecognized 2-letter codes, passes through 3-letter codes.
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "und"
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	normalized := Normalize(code)
	switch normalized {
	case "", Unknown:
		return "Unknown"
	case Other:
		return "Other"
	}
	if e := lookup(normalized); e != nil {
		if IsRomanized(normalized) {
			return e.display + " (romanized)"
		}
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
