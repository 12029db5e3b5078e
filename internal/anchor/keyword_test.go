package anchor

import (
	"testing"

	"subweave/internal/subtitle"
)

func seq(events ...subtitle.Event) subtitle.Sequence {
	return subtitle.Sequence(events)
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "all caps token",
			text: "FIRE the torpedoes",
			want: []string{"FIRE"},
		},
		{
			name: "multi digit number",
			text: "room 42 on deck 7",
			want: []string{"42"},
		},
		{
			name: "sentence-initial capitalized word excluded",
			text: "Hello there. We saw Paris today.",
			want: []string{"Paris"},
		},
		{
			name: "capitalized word in cjk line always counts",
			text: "我们在 Paris 见过面",
			want: []string{"Paris"},
		},
		{
			name: "stop words excluded",
			text: "OKAY THE WELL",
			want: nil,
		},
		{
			name: "single letter caps excluded",
			text: "I A",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractKeywords(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("extractKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("keyword[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindKeywordAnchorsBasic(t *testing.T) {
	source := seq(
		subtitle.NewEvent(10, 12, "我们去 Tokyo 吧"),
		subtitle.NewEvent(20, 22, "这是 42 号房间"),
	)
	reference := seq(
		subtitle.NewEvent(0, 2, "Let's go to Tokyo"),
		subtitle.NewEvent(10, 12, "This is room 42"),
	)
	anchors := FindKeywordAnchors(source, reference)
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d: %v", len(anchors), anchors)
	}
	for _, a := range anchors {
		if a.TimeOffset != -10 {
			t.Errorf("anchor offset = %f, want -10", a.TimeOffset)
		}
		if a.Method != MethodKeyword {
			t.Errorf("method = %q, want keyword", a.Method)
		}
		if a.Confidence < 0.5 || a.Confidence > 1 {
			t.Errorf("confidence = %f out of range", a.Confidence)
		}
	}
}

func TestFindKeywordAnchorsOneToOne(t *testing.T) {
	// TOKYO appears in several events on both sides; the mapping must still
	// be one-to-one.
	source := seq(
		subtitle.NewEvent(0, 1, "TOKYO calling"),
		subtitle.NewEvent(5, 6, "TOKYO again"),
		subtitle.NewEvent(9, 10, "TOKYO a third time"),
	)
	reference := seq(
		subtitle.NewEvent(1, 2, "TOKYO calling"),
		subtitle.NewEvent(6, 7, "TOKYO again"),
	)
	anchors := FindKeywordAnchors(source, reference)
	usedSrc := map[int]struct{}{}
	usedRef := map[int]struct{}{}
	for _, a := range anchors {
		if _, dup := usedSrc[a.SourceIndex]; dup {
			t.Fatalf("source index %d reused", a.SourceIndex)
		}
		if _, dup := usedRef[a.ReferenceIndex]; dup {
			t.Fatalf("reference index %d reused", a.ReferenceIndex)
		}
		usedSrc[a.SourceIndex] = struct{}{}
		usedRef[a.ReferenceIndex] = struct{}{}
	}
	if len(anchors) > 2 {
		t.Fatalf("more anchors (%d) than reference events (2)", len(anchors))
	}
}

func TestFindKeywordAnchorsConfidenceGrowsWithSharedCount(t *testing.T) {
	source := seq(subtitle.NewEvent(0, 1, "SHIELD HARRY 42"))
	reference := seq(subtitle.NewEvent(0, 1, "42 HARRY SHIELD"))
	anchors := FindKeywordAnchors(source, reference)
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	// 0.5 + 0.2*3 = 1.1 clamps to 1.0.
	if anchors[0].Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", anchors[0].Confidence)
	}
	if len(anchors[0].MatchedTokens) != 3 {
		t.Errorf("matched tokens = %v, want 3 entries", anchors[0].MatchedTokens)
	}
}

func TestFindKeywordAnchorsNoSharedTokens(t *testing.T) {
	source := seq(subtitle.NewEvent(0, 1, "PARIS"))
	reference := seq(subtitle.NewEvent(0, 1, "LONDON"))
	if anchors := FindKeywordAnchors(source, reference); len(anchors) != 0 {
		t.Fatalf("expected no anchors, got %v", anchors)
	}
}
