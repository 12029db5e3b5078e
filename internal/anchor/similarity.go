package anchor

import (
	"subweave/internal/subtitle"
	"subweave/internal/textsim"
)

const (
	similaritySampleCount    = 20
	similarityAcceptScore    = 0.6
	similarityWindowFraction = 0.10
	similarityWindowMin      = 10
)

// FindSimilarityAnchors samples evenly spaced source events and looks for
// the best-scoring reference event inside a proportional window. Only
// meaningful when both tracks carry the same language; the caller is
// responsible for that check. Each reference index is consumed at most once.
func FindSimilarityAnchors(source, reference subtitle.Sequence) []Candidate {
	if len(source) == 0 || len(reference) == 0 {
		return nil
	}

	window := int(float64(len(reference)) * similarityWindowFraction)
	if window < similarityWindowMin {
		window = similarityWindowMin
	}

	step := len(source) / similaritySampleCount
	if step < 1 {
		step = 1
	}

	usedReference := map[int]struct{}{}
	var anchors []Candidate
	for si := 0; si < len(source); si += step {
		// Project the source position proportionally onto the reference.
		center := si * len(reference) / len(source)
		lo := center - window
		if lo < 0 {
			lo = 0
		}
		hi := center + window
		if hi > len(reference)-1 {
			hi = len(reference) - 1
		}

		bestScore := 0.0
		bestRef := -1
		for ri := lo; ri <= hi; ri++ {
			if _, taken := usedReference[ri]; taken {
				continue
			}
			score := textsim.Score(source[si].Text, reference[ri].Text)
			if score > bestScore {
				bestScore = score
				bestRef = ri
			}
		}
		if bestRef < 0 || bestScore < similarityAcceptScore {
			continue
		}
		usedReference[bestRef] = struct{}{}
		anchors = append(anchors, Candidate{
			SourceIndex:    si,
			ReferenceIndex: bestRef,
			Confidence:     bestScore,
			Method:         MethodSimilarity,
			TimeOffset:     reference[bestRef].Start - source[si].Start,
		})
	}
	return anchors
}
