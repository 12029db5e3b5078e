package anchor

import (
	"math"
	"sort"

	"subweave/internal/subtitle"
)

const (
	// Offsets farther than this from the preliminary median are outliers.
	outlierCutoffSeconds = 5.0
	// minAnchors is the inlier count at which the count factor saturates.
	minAnchors = 3
)

// OffsetEstimate is the consensus time offset derived from a set of anchors,
// with a confidence reflecting how tightly the inliers agree.
type OffsetEstimate struct {
	Offset      float64
	Confidence  float64
	AnchorCount int
	InlierCount int
}

// Find runs all applicable finders and returns the deduplicated candidate
// set: keyword anchors first, then number anchors for index pairs not yet
// claimed, then similarity anchors when both tracks share a language.
func Find(source, reference subtitle.Sequence, sameLanguage bool) []Candidate {
	anchors := FindKeywordAnchors(source, reference)

	usedSource := map[int]struct{}{}
	usedReference := map[int]struct{}{}
	for _, a := range anchors {
		usedSource[a.SourceIndex] = struct{}{}
		usedReference[a.ReferenceIndex] = struct{}{}
	}

	appendUnused := func(candidates []Candidate) {
		for _, cand := range candidates {
			if _, ok := usedSource[cand.SourceIndex]; ok {
				continue
			}
			if _, ok := usedReference[cand.ReferenceIndex]; ok {
				continue
			}
			usedSource[cand.SourceIndex] = struct{}{}
			usedReference[cand.ReferenceIndex] = struct{}{}
			anchors = append(anchors, cand)
		}
	}

	appendUnused(FindNumberAnchors(source, reference))
	if sameLanguage {
		appendUnused(FindSimilarityAnchors(source, reference))
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].SourceIndex < anchors[j].SourceIndex
	})
	return anchors
}

// ComputeRobustOffset reduces anchor offsets to a single consensus value.
// With three or more anchors, offsets farther than the cutoff from the
// preliminary median are discarded before the final median; if that would
// discard everything, the full set is kept. Returns false when no anchors
// were supplied. The result is invariant under permutation of the input.
func ComputeRobustOffset(anchors []Candidate) (OffsetEstimate, bool) {
	if len(anchors) == 0 {
		return OffsetEstimate{}, false
	}

	offsets := make([]float64, len(anchors))
	for i, a := range anchors {
		offsets[i] = a.TimeOffset
	}
	preliminary := median(offsets)

	inliers := offsets
	if len(offsets) >= minAnchors {
		kept := make([]float64, 0, len(offsets))
		for _, off := range offsets {
			if math.Abs(off-preliminary) <= outlierCutoffSeconds {
				kept = append(kept, off)
			}
		}
		if len(kept) > 0 {
			inliers = kept
		}
	}

	final := median(inliers)

	deviations := make([]float64, len(inliers))
	for i, off := range inliers {
		deviations[i] = math.Abs(off - final)
	}
	mad := median(deviations)

	countFactor := float64(len(inliers)) / minAnchors
	if countFactor > 1 {
		countFactor = 1
	}

	return OffsetEstimate{
		Offset:      final,
		Confidence:  madFactor(mad) * (0.5 + 0.5*countFactor),
		AnchorCount: len(anchors),
		InlierCount: len(inliers),
	}, true
}

// madFactor maps the median absolute deviation of inlier offsets to an
// agreement factor.
func madFactor(mad float64) float64 {
	switch {
	case mad < 0.1:
		return 1.0
	case mad < 0.5:
		return 0.9
	case mad < 1.0:
		return 0.7
	case mad < 2.0:
		return 0.5
	default:
		return 0.3
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	cp := append([]float64(nil), values...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}
