package textsim

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cueTagPattern      = regexp.MustCompile(`\{[^}]*\}|<[^>]*>`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Normalize prepares subtitle text for comparison: lowercase, formatting
// tags removed, punctuation collapsed to spaces, whitespace squeezed.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = cueTagPattern.ReplaceAllString(s, " ")
	s = punctuationPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Words returns the whitespace-separated tokens of the normalized text.
func Words(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// ContainsCJK reports whether the string contains any Chinese, Japanese, or
// Korean script characters.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if IsCJK(r) {
			return true
		}
	}
	return false
}

// IsCJK reports whether the rune belongs to a CJK script block.
func IsCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana + Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul Syllables
		return true
	case r >= 0x3100 && r <= 0x312F: // Bopomofo
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
		return true
	}
	return false
}

// IsUpperWord reports whether the token is entirely uppercase letters.
func IsUpperWord(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
		hasLetter = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return hasLetter
}

// IsCapitalized reports whether the token starts with an uppercase Latin
// letter followed only by lowercase letters.
func IsCapitalized(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) || runes[0] > unicode.MaxASCII {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
