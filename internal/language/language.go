package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
	cjk     bool     // Uses a CJK script
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}, false},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}, true},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, true},
	{"ko", "kor", "", "Korean", []string{"korean"}, true},
	{"es", "spa", "", "Spanish", []string{"spanish"}, false},
	{"fr", "fra", "fre", "French", []string{"french"}, false},
	{"de", "deu", "ger", "German", []string{"german"}, false},
	{"it", "ita", "", "Italian", []string{"italian"}, false},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, false},
	{"ru", "rus", "", "Russian", []string{"russian"}, false},
	{"ar", "ara", "", "Arabic", []string{"arabic"}, false},
	{"hi", "hin", "", "Hindi", []string{"hindi"}, false},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}, false},
	{"pl", "pol", "", "Polish", []string{"polish"}, false},
	{"sv", "swe", "", "Swedish", []string{"swedish"}, false},
	{"da", "dan", "", "Danish", []string{"danish"}, false},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}, false},
	{"fi", "fin", "", "Finnish", []string{"finnish"}, false},
	{"th", "tha", "", "Thai", []string{"thai"}, false},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}, false},
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

// ToISO2 converts any recognized language code or word to ISO 639-1.
// Unknown 2-letter codes pass through; anything else returns empty.
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

// ToISO3 converts any recognized language code to ISO 639-2. Unknown
// 3-letter codes pass through; anything else returns "und".
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

// Known reports whether the code or word names a language in the table.
// Unlike ToISO2 and ToISO3 it never passes unrecognized codes through.
func Known(code string) bool {
	return lookup(code) != nil
}

// DisplayName returns a human-readable language name for any recognized
// code. Unrecognized input is title-cased as a best effort.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return cases.Title(xlanguage.Und).String(trimmed)
}

// IsCJK reports whether the language code names a Chinese, Japanese, or
// Korean language.
func IsCJK(code string) bool {
	e := lookup(code)
	return e != nil && e.cjk
}

// Same reports whether two language identifiers resolve to the same
// ISO 639-1 code. Unknown or empty codes never match.
func Same(a, b string) bool {
	na := ToISO2(a)
	nb := ToISO2(b)
	return na != "" && na == nb
}

// ExtractFromTags extracts and normalizes the language from stream metadata
// tags. Checks common tag keys used by ffprobe and Matroska muxers.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
