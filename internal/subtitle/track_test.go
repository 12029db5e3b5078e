package subtitle

import "testing"

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		value string
		want  SourceType
	}{
		{"embedded", SourceEmbedded},
		{" Embedded ", SourceEmbedded},
		{"EXTERNAL", SourceExternal},
		{"", SourceUnknown},
		{"sidecar", SourceUnknown},
	}
	for _, tt := range tests {
		if got := ParseSourceType(tt.value); got != tt.want {
			t.Errorf("ParseSourceType(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestIsEmbedded(t *testing.T) {
	if !(TrackInfo{Source: SourceEmbedded}).IsEmbedded() {
		t.Error("embedded track reported as not embedded")
	}
	if (TrackInfo{Source: SourceExternal}).IsEmbedded() {
		t.Error("external track reported as embedded")
	}
	if (TrackInfo{}).IsEmbedded() {
		t.Error("zero-value track reported as embedded")
	}
}
