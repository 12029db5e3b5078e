package syncer

import (
	"math"
	"sort"

	"subweave/internal/subtitle"
)

// Level classifies how well two tracks are already aligned.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelModerate  Level = "moderate"
	LevelPoor      Level = "poor"
)

// assessSampleCount caps how many leading events the assessor inspects.
const assessSampleCount = 10

// Assessment summarizes start-time deltas over the leading events of two
// tracks. CoreAverage trims the largest fifth of the deltas so a single
// straggler does not drag a well-aligned pair into a worse class.
type Assessment struct {
	Level       Level
	Average     float64
	CoreAverage float64
	Max         float64
	SampleCount int
}

// Assess compares the leading events of both tracks pairwise and classifies
// the alignment. Tracks with no comparable events classify as poor.
func Assess(a, b subtitle.Sequence) Assessment {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > assessSampleCount {
		n = assessSampleCount
	}
	if n == 0 {
		return Assessment{Level: LevelPoor}
	}

	deltas := make([]float64, n)
	var sum, max float64
	for i := 0; i < n; i++ {
		d := math.Abs(a[i].Start - b[i].Start)
		deltas[i] = d
		sum += d
		if d > max {
			max = d
		}
	}

	sort.Float64s(deltas)
	core := int(float64(n) * 0.8)
	if core < 1 {
		core = 1
	}
	var coreSum float64
	for _, d := range deltas[:core] {
		coreSum += d
	}

	assessment := Assessment{
		Average:     sum / float64(n),
		CoreAverage: coreSum / float64(core),
		Max:         max,
		SampleCount: n,
	}
	assessment.Level = classify(assessment.CoreAverage, assessment.Max)
	return assessment
}

func classify(core, max float64) Level {
	switch {
	case core < 0.5 && max < 2:
		return LevelExcellent
	case core < 1 && max < 5:
		return LevelGood
	case core < 3 && max < 10:
		return LevelModerate
	default:
		return LevelPoor
	}
}
