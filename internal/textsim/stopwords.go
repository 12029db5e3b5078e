package textsim

import "strings"

// stopWords holds common words and interjections that carry no anchoring
// signal across languages. Filtered out of the common-word metric and the
// keyword extraction in package anchor.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "a", "an", "and", "or", "but", "if", "then", "else",
		"of", "to", "in", "on", "at", "by", "for", "with", "from",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"do", "does", "did", "done", "have", "has", "had",
		"will", "would", "can", "could", "shall", "should", "may", "might", "must",
		"i", "you", "he", "she", "it", "we", "they",
		"me", "him", "her", "us", "them",
		"my", "your", "his", "its", "our", "their",
		"this", "that", "these", "those",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"not", "no", "yes", "yeah", "yep", "nope",
		"oh", "ah", "eh", "uh", "um", "hmm", "huh", "hey", "ha", "wow", "ow",
		"ok", "okay", "well", "so", "now", "just", "here", "there",
		"mr", "mrs", "ms", "dr", "sir",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether the token is in the curated stop-word set.
// Matching is case-insensitive.
func IsStopWord(s string) bool {
	_, ok := stopWords[strings.ToLower(s)]
	return ok
}
