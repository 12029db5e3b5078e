package merge

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/subtitle"
	"subweave/internal/syncer"
	"subweave/internal/textsim"
)

const (
	// misalignSampleCount events from each track feed the misalignment check.
	misalignSampleCount = 5
	// misalignAvgThreshold and misalignMaxThreshold trigger realignment.
	misalignAvgThreshold = 5.0
	misalignMaxThreshold = 7.5

	// realignTranslateWindow caps translated external events, while the
	// embedded side is scanned over a wider window.
	realignTranslateWindow = 20
	realignEmbeddedWindow  = 40
	realignMatchThreshold  = 0.7

	// lowScanWindow and lowScanThreshold define the last-resort similarity
	// scan: tiny window, nearly any lexical echo accepted.
	lowScanWindow    = 5
	lowScanThreshold = 0.05
)

// NeedsRealignment reports whether an embedded/external pair is massively
// misaligned: the mean absolute start delta over the leading events exceeds
// the average threshold, or any single delta exceeds the max threshold.
func NeedsRealignment(embedded, external subtitle.Sequence) bool {
	n := min(len(embedded), len(external), misalignSampleCount)
	if n == 0 {
		return false
	}
	var sum, max float64
	for i := 0; i < n; i++ {
		d := math.Abs(embedded[i].Start - external[i].Start)
		sum += d
		if d > max {
			max = d
		}
	}
	return sum/float64(n) > misalignAvgThreshold || max > misalignMaxThreshold
}

// RealignOptions tunes mixed-track realignment. Languages are the track
// language codes; the translator is optional.
type RealignOptions struct {
	Translator       syncer.Translator
	EmbeddedLanguage string
	ExternalLanguage string
	MatchThreshold   float64
	Order            TextOrder
	Logger           *slog.Logger
}

func (o RealignOptions) threshold() float64 {
	if o.MatchThreshold > 0 {
		return o.MatchThreshold
	}
	return realignMatchThreshold
}

// realignAnchor is one claimed correspondence between an embedded event and
// an external event, found by whichever detector fired first.
type realignAnchor struct {
	embeddedIndex int
	externalIndex int
	confidence    float64
	method        string
}

// RealignMixed merges an embedded/external pair whose timelines disagree by
// a large constant. It locates one semantic anchor, drops every external
// event before it, shifts the remainder onto the embedded timeline, and then
// merges with embedded timing held fixed. Without an anchor it degrades to a
// plain timing-preservation merge. Embedded timing is never modified.
func RealignMixed(ctx context.Context, embedded, external subtitle.Sequence, opts RealignOptions) subtitle.Sequence {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	anchor, ok := findRealignAnchor(ctx, embedded, external, opts, logger)
	if !ok {
		logger.Debug("no realignment anchor, merging as-is")
		return PreserveTiming(embedded, external, TimingOptions{Order: opts.Order})
	}

	offset := embedded[anchor.embeddedIndex].Start - external[anchor.externalIndex].Start
	logger.Debug("realignment anchor",
		logging.String("method", anchor.method),
		logging.Int("embedded_index", anchor.embeddedIndex),
		logging.Int("external_index", anchor.externalIndex),
		logging.Float64("offset", offset),
		logging.Float64("confidence", anchor.confidence))

	realigned := external[anchor.externalIndex:].Shift(offset)
	return PreserveTiming(embedded, realigned, TimingOptions{Order: opts.Order, Mixed: true})
}

// findRealignAnchor tries the detectors in decreasing order of reliability:
// translation-assisted matching, then the first-substantial-dialogue
// heuristic, then a low-threshold similarity scan over the opening events.
func findRealignAnchor(ctx context.Context, embedded, external subtitle.Sequence, opts RealignOptions, logger *slog.Logger) (realignAnchor, bool) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(embedded) == 0 || len(external) == 0 {
		return realignAnchor{}, false
	}
	if anchor, ok := translationAssistedAnchor(ctx, embedded, external, opts, logger); ok {
		return anchor, true
	}
	if anchor, ok := substantialDialogueAnchor(embedded, external, opts); ok {
		return anchor, true
	}
	return lowThresholdScanAnchor(embedded, external)
}

func translationAssistedAnchor(ctx context.Context, embedded, external subtitle.Sequence, opts RealignOptions, logger *slog.Logger) (realignAnchor, bool) {
	if opts.Translator == nil {
		return realignAnchor{}, false
	}
	en := min(len(external), realignTranslateWindow)
	bn := min(len(embedded), realignEmbeddedWindow)
	targetLang := language.ToISO2(opts.EmbeddedLanguage)
	sourceLang := language.ToISO2(opts.ExternalLanguage)

	best := realignAnchor{method: "translation"}
	for xi := 0; xi < en; xi++ {
		text := strings.TrimSpace(external[xi].Text)
		if text == "" {
			continue
		}
		translated, err := opts.Translator.Translate(ctx, text, targetLang, sourceLang)
		if err != nil {
			logger.Debug("translation anchor abandoned", logging.Error(err))
			return realignAnchor{}, false
		}
		for ei := 0; ei < bn; ei++ {
			score := textsim.Score(translated, embedded[ei].Text)
			if score > best.confidence {
				best.confidence = score
				best.embeddedIndex = ei
				best.externalIndex = xi
			}
		}
	}
	if best.confidence < opts.threshold() {
		return realignAnchor{}, false
	}
	return best, true
}

// substantialDialogueAnchor pairs the first event on each side that looks
// like real dialogue rather than a credit, logo, or interjection.
func substantialDialogueAnchor(embedded, external subtitle.Sequence, opts RealignOptions) (realignAnchor, bool) {
	ei := firstSubstantialIndex(embedded, opts.EmbeddedLanguage)
	xi := firstSubstantialIndex(external, opts.ExternalLanguage)
	if ei < 0 || xi < 0 {
		return realignAnchor{}, false
	}
	return realignAnchor{embeddedIndex: ei, externalIndex: xi, confidence: 0.5, method: "first-dialogue"}, true
}

func firstSubstantialIndex(events subtitle.Sequence, lang string) int {
	for i, ev := range events {
		if isSubstantialDialogue(ev.Text, lang) {
			return i
		}
	}
	return -1
}

// isSubstantialDialogue applies per-script length and question-marker
// heuristics: CJK carries far more meaning per rune than Latin text.
func isSubstantialDialogue(text, lang string) bool {
	normalized := textsim.Normalize(text)
	if normalized == "" {
		return false
	}
	if strings.ContainsAny(text, "?？") {
		return true
	}
	runes := []rune(normalized)
	if language.IsCJK(lang) || textsim.ContainsCJK(normalized) {
		return len(runes) >= 4
	}
	return len(runes) >= 10 && len(strings.Fields(normalized)) >= 3
}

func lowThresholdScanAnchor(embedded, external subtitle.Sequence) (realignAnchor, bool) {
	en := min(len(embedded), lowScanWindow)
	xn := min(len(external), lowScanWindow)
	best := realignAnchor{method: "similarity-scan"}
	for ei := 0; ei < en; ei++ {
		for xi := 0; xi < xn; xi++ {
			score := textsim.Score(embedded[ei].Text, external[xi].Text)
			if score > best.confidence {
				best.confidence = score
				best.embeddedIndex = ei
				best.externalIndex = xi
			}
		}
	}
	if best.confidence < lowScanThreshold {
		return realignAnchor{}, false
	}
	return best, true
}
