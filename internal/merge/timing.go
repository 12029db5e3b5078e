package merge

import (
	"math"
	"strings"

	"subweave/internal/subtitle"
)

const (
	// standardMinOverlap is the smallest time overlap that counts as a match
	// between a reference event and an overlay event.
	standardMinOverlap = 0.1
	// mixedMinOverlap relaxes the overlap floor after a mixed-track realign,
	// where the shifted overlay may only graze the reference events.
	mixedMinOverlap = 0.001
	// centerFallbackMaxDelta bounds the nearest-center fallback used in
	// mixed mode when nothing overlaps at all.
	centerFallbackMaxDelta = 2.0
)

// TextOrder controls which track's text comes first in a combined event.
type TextOrder string

const (
	OrderReferenceFirst TextOrder = "first"
	OrderOverlayFirst   TextOrder = "second"
)

// TimingOptions tunes a timing-preservation merge. The zero value is the
// standard mode with reference text first.
type TimingOptions struct {
	Order TextOrder
	// Mixed enables the relaxed overlap floor and the nearest-center
	// fallback used after mixed-track realignment.
	Mixed bool
}

// PreserveTiming merges overlay text into the reference sequence without
// touching reference timing: the output has exactly one event per reference
// event, with the reference boundaries carried through unchanged. Each
// overlay event contributes to at most one output event; the best match is
// the unused overlay event with the largest time overlap.
func PreserveTiming(reference, overlay subtitle.Sequence, opts TimingOptions) subtitle.Sequence {
	minOverlap := standardMinOverlap
	if opts.Mixed {
		minOverlap = mixedMinOverlap
	}

	used := make([]bool, len(overlay))
	merged := make(subtitle.Sequence, 0, len(reference))
	for _, ref := range reference {
		j := bestOverlapMatch(ref, overlay, used, minOverlap)
		if j < 0 && opts.Mixed {
			j = nearestCenterMatch(ref, overlay, used, centerFallbackMaxDelta)
		}
		if j < 0 {
			merged = append(merged, ref)
			continue
		}
		used[j] = true
		merged = append(merged, ref.WithText(combineText(ref.Text, overlay[j].Text, opts.Order)))
	}
	return merged
}

func bestOverlapMatch(ref subtitle.Event, overlay subtitle.Sequence, used []bool, minOverlap float64) int {
	best := -1
	bestOverlap := 0.0
	for j, ov := range overlay {
		if used[j] {
			continue
		}
		overlap := ov.Overlap(ref.Start, ref.End)
		if overlap >= minOverlap && overlap > bestOverlap {
			best = j
			bestOverlap = overlap
		}
	}
	return best
}

func nearestCenterMatch(ref subtitle.Event, overlay subtitle.Sequence, used []bool, maxDelta float64) int {
	best := -1
	bestDelta := maxDelta
	center := ref.Center()
	for j, ov := range overlay {
		if used[j] {
			continue
		}
		delta := math.Abs(ov.Center() - center)
		if delta <= bestDelta {
			best = j
			bestDelta = delta
		}
	}
	return best
}

func combineText(reference, overlay string, order TextOrder) string {
	reference = strings.TrimSpace(reference)
	overlay = strings.TrimSpace(overlay)
	switch {
	case overlay == "":
		return reference
	case reference == "":
		return overlay
	case order == OrderOverlayFirst:
		return overlay + "\n" + reference
	default:
		return reference + "\n" + overlay
	}
}
