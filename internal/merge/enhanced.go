package merge

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"subweave/internal/logging"
	"subweave/internal/services"
	"subweave/internal/subtitle"
	"subweave/internal/syncer"
	"subweave/internal/textsim"
)

const (
	// proximityMaxDelta is the start-time distance within which two events
	// are considered the same moment after global synchronization.
	proximityMaxDelta = 0.5
	// contentMatchThreshold gates the content-similarity pass over events
	// the proximity pass left unmatched.
	contentMatchThreshold = 0.4
)

// EnhancedOptions tunes the per-event alignment merge for external track
// pairs that start out moderately or poorly synchronized.
type EnhancedOptions struct {
	Sync                syncer.Options
	Order               TextOrder
	SimilarityThreshold float64
	Logger              *slog.Logger
}

func (o EnhancedOptions) threshold() float64 {
	if o.SimilarityThreshold > 0 {
		return o.SimilarityThreshold
	}
	return contentMatchThreshold
}

// EnhancedAlign merges two external tracks by synchronizing globally, then
// pairing events by start-time proximity, then by content similarity for
// whatever proximity left over. Events with no counterpart are kept as-is,
// and the result is re-sorted chronologically. Matched pairs take the
// reference track's timing.
func EnhancedAlign(ctx context.Context, a, b syncer.Track, opts EnhancedOptions) (subtitle.Sequence, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	result, err := syncer.Synchronize(ctx, a, b, opts.Sync)
	if err != nil && !errors.Is(err, services.ErrAlignmentNotFound) {
		return nil, err
	}
	if err != nil {
		logger.Debug("global synchronization found no anchor, aligning unshifted tracks")
	}

	reference := result.Reference.Events
	overlay := result.Overlay.Events

	matched := make([]int, len(reference))
	for i := range matched {
		matched[i] = -1
	}
	used := make([]bool, len(overlay))

	// Pass 1: start-time proximity.
	for i, ref := range reference {
		best := -1
		bestDelta := proximityMaxDelta
		for j, ov := range overlay {
			if used[j] {
				continue
			}
			delta := math.Abs(ov.Start - ref.Start)
			if delta <= bestDelta {
				best = j
				bestDelta = delta
			}
		}
		if best >= 0 {
			matched[i] = best
			used[best] = true
		}
	}

	// Pass 2: content similarity for the remainder.
	threshold := opts.threshold()
	for i, ref := range reference {
		if matched[i] >= 0 {
			continue
		}
		best := -1
		bestScore := threshold
		for j, ov := range overlay {
			if used[j] {
				continue
			}
			score := textsim.Score(ref.Text, ov.Text)
			if score >= bestScore {
				best = j
				bestScore = score
			}
		}
		if best >= 0 {
			matched[i] = best
			used[best] = true
		}
	}

	merged := make(subtitle.Sequence, 0, len(reference)+len(overlay))
	for i, ref := range reference {
		if j := matched[i]; j >= 0 {
			merged = append(merged, ref.WithText(combineText(ref.Text, overlay[j].Text, opts.Order)))
			continue
		}
		merged = append(merged, ref)
	}
	for j, ov := range overlay {
		if !used[j] {
			merged = append(merged, ov)
		}
	}
	return merged.Sorted(), nil
}
