package syncer

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"subweave/internal/anchor"
	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/services"
	"subweave/internal/subtitle"
	"subweave/internal/textsim"
)

const (
	// firstLineMaxDelta bounds the first-event start difference a first-line
	// anchor will accept.
	firstLineMaxDelta = 2.0
	// scanWindow is how many leading events the scan strategy pairs up.
	scanWindow = 10
	// looseScanMaxDelta widens the scan acceptance window when translation
	// matching fails.
	looseScanMaxDelta = 60.0
	// translationWindow caps how many events per side translation matching
	// inspects.
	translationWindow = 20
	// minApplyOffset: offsets at or below this magnitude are noise and are
	// not applied to the overlay track.
	minApplyOffset = 0.1
	// defaultMatchThreshold gates translation-assisted matches.
	defaultMatchThreshold = 0.7
)

// Translator is the slice of the translation service the synchronizer needs.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// Track pairs a subtitle sequence with its source metadata.
type Track struct {
	Events subtitle.Sequence
	Info   subtitle.TrackInfo
}

// ReferenceChoice overrides automatic reference-track selection.
type ReferenceChoice string

const (
	ReferenceAuto   ReferenceChoice = ""
	ReferenceFirst  ReferenceChoice = "first"
	ReferenceSecond ReferenceChoice = "second"
)

// Options carries per-session synchronization settings. The zero value asks
// for automatic reference selection and strategy dispatch.
type Options struct {
	Strategy           Strategy
	Reference          ReferenceChoice
	LanguagePreference string
	ManualAnchor       *anchor.Candidate
	MatchThreshold     float64
	Translator         Translator
	Logger             *slog.Logger
}

func (o Options) threshold() float64 {
	if o.MatchThreshold > 0 {
		return o.MatchThreshold
	}
	return defaultMatchThreshold
}

// Result reports the synchronization outcome. Overlay carries the shifted
// events when Applied is true, otherwise the original overlay events.
type Result struct {
	Reference      Track
	Overlay        Track
	ReferenceIndex int // 0 for the first input track, 1 for the second
	Offset         float64
	Confidence     float64
	Strategy       Strategy
	Applied        bool
}

// Synchronize selects a reference track, finds one global offset with the
// requested strategy, and applies it to the non-reference track when its
// magnitude is meaningful. When no anchor meets the acceptance threshold the
// returned Result still carries both tracks unshifted alongside an
// ErrAlignmentNotFound, so callers can fall back to an identity merge.
func Synchronize(ctx context.Context, a, b Track, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	refIdx := selectReference(a, b, opts)
	reference, overlay := a, b
	if refIdx == 1 {
		reference, overlay = b, a
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	result := Result{
		Reference:      reference,
		Overlay:        overlay,
		ReferenceIndex: refIdx,
		Strategy:       strategy,
	}

	offset, confidence, found, err := findOffset(ctx, reference, overlay, strategy, opts, logger)
	if err != nil {
		return result, err
	}
	if !found {
		return result, services.Wrap(services.ErrAlignmentNotFound, "syncer", "synchronize",
			"no anchor met the acceptance threshold", nil)
	}

	result.Offset = offset
	result.Confidence = confidence
	if math.Abs(offset) > minApplyOffset {
		result.Overlay.Events = overlay.Events.Shift(offset)
		result.Applied = true
	}
	logger.Debug("global offset",
		logging.String("strategy", string(strategy)),
		logging.Float64("offset", offset),
		logging.Float64("confidence", confidence),
		logging.Bool("applied", result.Applied))
	return result, nil
}

// selectReference picks which track's timing is authoritative: an explicit
// override wins, then embedded beats external, then the preferred language,
// then whichever track starts earlier, then the first track.
func selectReference(a, b Track, opts Options) int {
	switch opts.Reference {
	case ReferenceFirst:
		return 0
	case ReferenceSecond:
		return 1
	}

	aEmbedded, bEmbedded := a.Info.IsEmbedded(), b.Info.IsEmbedded()
	if aEmbedded != bEmbedded {
		if aEmbedded {
			return 0
		}
		return 1
	}

	pref := strings.ToLower(strings.TrimSpace(opts.LanguagePreference))
	if pref != "" && pref != "auto" {
		aMatch := language.Same(a.Info.Language, pref)
		bMatch := language.Same(b.Info.Language, pref)
		if aMatch != bMatch {
			if aMatch {
				return 0
			}
			return 1
		}
	}

	aStart, bStart := a.Events.FirstStart(), b.Events.FirstStart()
	if aStart != bStart {
		if aStart < bStart {
			return 0
		}
		return 1
	}
	return 0
}

func findOffset(ctx context.Context, reference, overlay Track, strategy Strategy, opts Options, logger *slog.Logger) (float64, float64, bool, error) {
	switch strategy {
	case StrategyManual:
		if opts.ManualAnchor == nil {
			return 0, 0, false, services.Wrap(services.ErrValidation, "syncer", "synchronize",
				"manual strategy requires an anchor candidate", nil)
		}
		return opts.ManualAnchor.TimeOffset, opts.ManualAnchor.Confidence, true, nil

	case StrategyFirstLine:
		offset, confidence, ok := firstLineAnchor(reference.Events, overlay.Events)
		return offset, confidence, ok, nil

	case StrategyScan:
		offset, confidence, ok := scanAnchor(reference.Events, overlay.Events, scanWindow, firstLineMaxDelta)
		return offset, confidence, ok, nil

	case StrategyTranslation:
		offset, confidence, ok := translationAnchor(ctx, reference, overlay, opts, logger)
		if ok {
			return offset, confidence, true, nil
		}
		if offset, confidence, ok = scanAnchor(reference.Events, overlay.Events, scanWindow, looseScanMaxDelta); ok {
			return offset, confidence, true, nil
		}
		offset, confidence, ok = crossLanguageAnchor(reference, overlay)
		return offset, confidence, ok, nil

	default: // StrategyAuto
		if offset, confidence, ok := firstLineAnchor(reference.Events, overlay.Events); ok {
			return offset, confidence, true, nil
		}
		if offset, confidence, ok := scanAnchor(reference.Events, overlay.Events, scanWindow, firstLineMaxDelta); ok {
			return offset, confidence, true, nil
		}
		if opts.Translator != nil {
			if offset, confidence, ok := translationAnchor(ctx, reference, overlay, opts, logger); ok {
				return offset, confidence, true, nil
			}
		}
		offset, confidence, ok := crossLanguageAnchor(reference, overlay)
		return offset, confidence, ok, nil
	}
}

// firstLineAnchor pairs the first event of each track.
func firstLineAnchor(reference, overlay subtitle.Sequence) (float64, float64, bool) {
	if len(reference) == 0 || len(overlay) == 0 {
		return 0, 0, false
	}
	delta := math.Abs(reference[0].Start - overlay[0].Start)
	if delta > firstLineMaxDelta {
		return 0, 0, false
	}
	return reference[0].Start - overlay[0].Start, 1 - delta/2, true
}

// scanAnchor tries every pair among the leading events of both tracks and
// keeps the smallest start delta within maxDelta.
func scanAnchor(reference, overlay subtitle.Sequence, window int, maxDelta float64) (float64, float64, bool) {
	rn := min(len(reference), window)
	on := min(len(overlay), window)
	best := math.Inf(1)
	var offset float64
	for i := 0; i < rn; i++ {
		for j := 0; j < on; j++ {
			d := math.Abs(reference[i].Start - overlay[j].Start)
			if d < best {
				best = d
				offset = reference[i].Start - overlay[j].Start
			}
		}
	}
	if best > maxDelta {
		return 0, 0, false
	}
	confidence := 1 - best/maxDelta
	if confidence < 0 {
		confidence = 0
	}
	return offset, confidence, true
}

// translationAnchor translates leading overlay events into the reference
// language and scores them against leading reference events, accepting the
// best pair above the match threshold. Transport failures and quota
// exhaustion abandon the attempt so the caller can fall back.
func translationAnchor(ctx context.Context, reference, overlay Track, opts Options, logger *slog.Logger) (float64, float64, bool) {
	if opts.Translator == nil {
		return 0, 0, false
	}
	rn := min(len(reference.Events), translationWindow)
	on := min(len(overlay.Events), translationWindow)
	if rn == 0 || on == 0 {
		return 0, 0, false
	}

	targetLang := language.ToISO2(reference.Info.Language)
	sourceLang := language.ToISO2(overlay.Info.Language)

	bestScore := 0.0
	var bestOffset float64
	for j := 0; j < on; j++ {
		text := strings.TrimSpace(overlay.Events[j].Text)
		if text == "" {
			continue
		}
		translated, err := opts.Translator.Translate(ctx, text, targetLang, sourceLang)
		if err != nil {
			logger.Debug("translation matching abandoned", logging.Error(err))
			return 0, 0, false
		}
		for i := 0; i < rn; i++ {
			score := textsim.Score(translated, reference.Events[i].Text)
			if score > bestScore {
				bestScore = score
				bestOffset = reference.Events[i].Start - overlay.Events[j].Start
			}
		}
	}
	if bestScore < opts.threshold() {
		return 0, 0, false
	}
	return bestOffset, bestScore, true
}

// crossLanguageAnchor falls back to translation-invariant token anchors
// (keywords, numbers) with the robust consensus offset.
func crossLanguageAnchor(reference, overlay Track) (float64, float64, bool) {
	sameLang := language.Same(reference.Info.Language, overlay.Info.Language)
	anchors := anchor.Find(overlay.Events, reference.Events, sameLang)
	estimate, ok := anchor.ComputeRobustOffset(anchors)
	if !ok {
		return 0, 0, false
	}
	return estimate.Offset, estimate.Confidence, true
}
