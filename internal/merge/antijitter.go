package merge

import "subweave/internal/subtitle"

// jitterMaxGap is the largest silence between two identical cues that still
// reads as one continuous cue.
const jitterMaxGap = 0.1

// AntiJitter combines consecutive events that carry identical text and are
// separated by at most jitterMaxGap seconds. It performs no other retiming
// and never touches neighbors whose text differs.
func AntiJitter(events subtitle.Sequence) subtitle.Sequence {
	if len(events) < 2 {
		return events
	}
	out := make(subtitle.Sequence, 0, len(events))
	current := events[0]
	for _, next := range events[1:] {
		gap := next.Start - current.End
		if next.Text == current.Text && gap <= jitterMaxGap {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}
