package subtitle

import "strings"

// SourceType identifies where a subtitle track was obtained from. It drives
// reference-track priority and whether mixed-track misalignment detection
// applies.
type SourceType string

const (
	SourceEmbedded SourceType = "embedded"
	SourceExternal SourceType = "external"
	SourceUnknown  SourceType = "unknown"
)

// TrackInfo describes the origin of a subtitle track.
type TrackInfo struct {
	Source   SourceType
	Language string
	TrackID  int
	Title    string
	Codec    string
	Forced   bool
	Path     string
}

// ParseSourceType normalizes a source-type string, defaulting to unknown.
func ParseSourceType(value string) SourceType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "embedded":
		return SourceEmbedded
	case "external":
		return SourceExternal
	default:
		return SourceUnknown
	}
}

// IsEmbedded reports whether the track came from inside a media container.
func (t TrackInfo) IsEmbedded() bool {
	return t.Source == SourceEmbedded
}
