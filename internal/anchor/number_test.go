package anchor

import (
	"math"
	"testing"

	"subweave/internal/subtitle"
)

func TestFindNumberAnchorsPairsSharedNumbers(t *testing.T) {
	source := subtitle.Sequence{
		subtitle.NewEvent(10, 12, "Flight 370 is now boarding"),
		subtitle.NewEvent(20, 22, "See you at gate 9"),
	}
	reference := subtitle.Sequence{
		subtitle.NewEvent(40, 42, "370号航班正在登机"),
		subtitle.NewEvent(50, 52, "九号登机口见"),
	}

	anchors := FindNumberAnchors(source, reference)
	if len(anchors) != 1 {
		t.Fatalf("got %d anchors, want 1: %+v", len(anchors), anchors)
	}
	got := anchors[0]
	if got.SourceIndex != 0 || got.ReferenceIndex != 0 {
		t.Errorf("anchor indexes = (%d, %d), want (0, 0)", got.SourceIndex, got.ReferenceIndex)
	}
	if got.Method != MethodNumber {
		t.Errorf("Method = %q", got.Method)
	}
	if math.Abs(got.TimeOffset-30) > 1e-9 {
		t.Errorf("TimeOffset = %v, want 30", got.TimeOffset)
	}
	if math.Abs(got.Confidence-0.6) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.6 for one shared number", got.Confidence)
	}
}

func TestFindNumberAnchorsIgnoresSingleDigits(t *testing.T) {
	source := subtitle.Sequence{subtitle.NewEvent(0, 2, "Table 5 please")}
	reference := subtitle.Sequence{subtitle.NewEvent(3, 5, "5号桌")}

	if anchors := FindNumberAnchors(source, reference); len(anchors) != 0 {
		t.Errorf("single digits should not anchor, got %+v", anchors)
	}
}

func TestFindNumberAnchorsDeduplicatesWithinEvent(t *testing.T) {
	source := subtitle.Sequence{subtitle.NewEvent(0, 2, "Room 101, yes 101")}
	reference := subtitle.Sequence{subtitle.NewEvent(6, 8, "101房间")}

	anchors := FindNumberAnchors(source, reference)
	if len(anchors) != 1 {
		t.Fatalf("got %d anchors, want 1", len(anchors))
	}
	if math.Abs(anchors[0].Confidence-0.6) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.6 despite the repeated number", anchors[0].Confidence)
	}
}
