package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"subweave/internal/anchor"
	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/merge"
	"subweave/internal/services"
	"subweave/internal/subtitle"
	"subweave/internal/syncer"
)

// Path names which merge strategy produced the output.
type Path string

const (
	PathTimingPreservation Path = "timing-preservation"
	PathMixedRealign       Path = "mixed-realign"
	PathEnhancedAlign      Path = "enhanced-align"
	PathPassthrough        Path = "passthrough"
)

// Options carries the per-session settings for one merge. The zero value
// uses automatic strategy selection with reference text first.
type Options struct {
	Strategy           syncer.Strategy
	Reference          syncer.ReferenceChoice
	LanguagePreference string
	MatchThreshold     float64
	TextOrder          merge.TextOrder
	EnhancedAlignment  bool
	AntiJitter         bool
	Translator         syncer.Translator
	ManualAnchor       *anchor.Candidate
	Logger             *slog.Logger
}

// OptionsFromConfig builds merge options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config, translator syncer.Translator, logger *slog.Logger) (Options, error) {
	strategy, err := syncer.ParseStrategy(cfg.Sync.Strategy)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "options", "invalid sync strategy", err)
	}
	order := merge.OrderReferenceFirst
	if cfg.Merge.TextOrder == "second" {
		order = merge.OrderOverlayFirst
	}
	return Options{
		Strategy:           strategy,
		Reference:          syncer.ReferenceChoice(cfg.Sync.Reference),
		LanguagePreference: cfg.Sync.LanguagePreference,
		MatchThreshold:     cfg.Sync.MatchThreshold,
		TextOrder:          order,
		EnhancedAlignment:  cfg.Merge.EnhancedAlignment,
		AntiJitter:         cfg.Merge.AntiJitter,
		Translator:         translator,
		Logger:             logger,
	}, nil
}

// Outcome reports what one merge did.
type Outcome struct {
	Events     subtitle.Sequence
	Path       Path
	SyncLevel  syncer.Level
	Offset     float64
	Confidence float64
}

// Merge runs the full per-file pipeline over two tracks and returns the
// merged bilingual sequence.
func Merge(ctx context.Context, a, b syncer.Track, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	// Empty sequences short-circuit: return the other side unchanged.
	if len(a.Events) == 0 && len(b.Events) == 0 {
		return Outcome{Path: PathPassthrough}, nil
	}
	if len(a.Events) == 0 {
		return Outcome{Events: b.Events, Path: PathPassthrough}, nil
	}
	if len(b.Events) == 0 {
		return Outcome{Events: a.Events, Path: PathPassthrough}, nil
	}

	ctx = services.WithStage(ctx, "assess")
	assessment := syncer.Assess(a.Events, b.Events)
	logging.WithContext(ctx, logger).Debug("synchronization assessed",
		logging.Any("level", assessment.Level),
		logging.Float64("core_avg", assessment.CoreAverage),
		logging.Float64("max", assessment.Max))

	outcome := Outcome{SyncLevel: assessment.Level}

	aEmbedded := a.Info.IsEmbedded()
	bEmbedded := b.Info.IsEmbedded()

	switch {
	case aEmbedded != bEmbedded && needsMixedRealign(a, b):
		ctx = services.WithStage(ctx, "mixed-realign")
		embedded, external := a, b
		if bEmbedded {
			embedded, external = b, a
		}
		merged := merge.RealignMixed(ctx, embedded.Events, external.Events, merge.RealignOptions{
			Translator:       opts.Translator,
			EmbeddedLanguage: embedded.Info.Language,
			ExternalLanguage: external.Info.Language,
			MatchThreshold:   opts.MatchThreshold,
			Order:            opts.TextOrder,
			Logger:           logging.WithContext(ctx, logger),
		})
		if err := merge.ValidateTimingPreserved(embedded.Events, merged); err != nil {
			return outcome, err
		}
		outcome.Events = merged
		outcome.Path = PathMixedRealign

	case !aEmbedded && !bEmbedded &&
		(opts.EnhancedAlignment || assessment.Level == syncer.LevelModerate || assessment.Level == syncer.LevelPoor):
		ctx = services.WithStage(ctx, "enhanced-align")
		merged, err := merge.EnhancedAlign(ctx, a, b, merge.EnhancedOptions{
			Sync:   syncOptions(opts, logging.WithContext(ctx, logger)),
			Order:  opts.TextOrder,
			Logger: logging.WithContext(ctx, logger),
		})
		if err != nil {
			return outcome, err
		}
		outcome.Events = merged
		outcome.Path = PathEnhancedAlign

	default:
		ctx = services.WithStage(ctx, "global-sync")
		result, err := syncer.Synchronize(ctx, a, b, syncOptions(opts, logging.WithContext(ctx, logger)))
		if err != nil && !errors.Is(err, services.ErrAlignmentNotFound) {
			return outcome, err
		}
		if err != nil {
			logging.WithContext(ctx, logger).Warn("no global anchor found, merging without a shift")
		}
		merged := merge.PreserveTiming(result.Reference.Events, result.Overlay.Events, merge.TimingOptions{
			Order: opts.TextOrder,
		})
		if err := merge.ValidateTimingPreserved(result.Reference.Events, merged); err != nil {
			return outcome, err
		}
		outcome.Events = merged
		outcome.Path = PathTimingPreservation
		outcome.Offset = result.Offset
		outcome.Confidence = result.Confidence
	}

	if opts.AntiJitter {
		outcome.Events = merge.AntiJitter(outcome.Events)
	}
	logging.WithContext(ctx, logger).Info("tracks merged",
		logging.String("path", string(outcome.Path)),
		logging.Int("events", len(outcome.Events)))
	return outcome, nil
}

func needsMixedRealign(a, b syncer.Track) bool {
	embedded, external := a, b
	if b.Info.IsEmbedded() {
		embedded, external = b, a
	}
	return merge.NeedsRealignment(embedded.Events, external.Events)
}

func syncOptions(opts Options, logger *slog.Logger) syncer.Options {
	return syncer.Options{
		Strategy:           opts.Strategy,
		Reference:          opts.Reference,
		LanguagePreference: opts.LanguagePreference,
		ManualAnchor:       opts.ManualAnchor,
		MatchThreshold:     opts.MatchThreshold,
		Translator:         opts.Translator,
		Logger:             logger,
	}
}
