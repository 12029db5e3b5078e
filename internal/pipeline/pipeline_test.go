package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/services"
	"subweave/internal/subtitle"
	"subweave/internal/syncer"
)

func externalTrack(lang string, events ...subtitle.Event) syncer.Track {
	return syncer.Track{
		Events: subtitle.Sequence(events),
		Info:   subtitle.TrackInfo{Source: subtitle.SourceExternal, Language: lang},
	}
}

func embeddedTrack(lang string, events ...subtitle.Event) syncer.Track {
	return syncer.Track{
		Events: subtitle.Sequence(events),
		Info:   subtitle.TrackInfo{Source: subtitle.SourceEmbedded, Language: lang},
	}
}

func TestMergeEmptySideShortCircuits(t *testing.T) {
	full := externalTrack("en",
		subtitle.NewEvent(0, 2, "Hello"),
		subtitle.NewEvent(5, 7, "World"))

	outcome, err := Merge(context.Background(), syncer.Track{}, full, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if outcome.Path != PathPassthrough {
		t.Errorf("Path = %q, want %q", outcome.Path, PathPassthrough)
	}
	if len(outcome.Events) != 2 || outcome.Events[0].Text != "Hello" {
		t.Errorf("Events = %+v, want the non-empty track unchanged", outcome.Events)
	}

	outcome, err = Merge(context.Background(), syncer.Track{}, syncer.Track{}, Options{})
	if err != nil {
		t.Fatalf("Merge of two empty tracks: %v", err)
	}
	if len(outcome.Events) != 0 || outcome.Path != PathPassthrough {
		t.Errorf("two empty tracks: outcome = %+v", outcome)
	}
}

func TestMergeTimingPreservationPath(t *testing.T) {
	a := externalTrack("en",
		subtitle.NewEvent(0, 2, "Hello"),
		subtitle.NewEvent(5, 7, "World"))
	b := externalTrack("zh",
		subtitle.NewEvent(0.2, 2.1, "你好"),
		subtitle.NewEvent(5.1, 7.2, "世界"))

	outcome, err := Merge(context.Background(), a, b, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if outcome.Path != PathTimingPreservation {
		t.Fatalf("Path = %q, want %q", outcome.Path, PathTimingPreservation)
	}
	if outcome.SyncLevel != syncer.LevelExcellent {
		t.Errorf("SyncLevel = %q, want %q", outcome.SyncLevel, syncer.LevelExcellent)
	}
	if len(outcome.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(outcome.Events))
	}
	// Track a started earlier, so its timing is the reference timing.
	if outcome.Events[0].Start != 0 || outcome.Events[0].End != 2 {
		t.Errorf("merged[0] spans [%v, %v], want reference [0, 2]",
			outcome.Events[0].Start, outcome.Events[0].End)
	}
	if outcome.Events[0].Text != "Hello\n你好" {
		t.Errorf("merged[0].Text = %q", outcome.Events[0].Text)
	}
	if outcome.Offset > -0.1 || outcome.Offset < -0.3 {
		t.Errorf("Offset = %v, want about -0.2", outcome.Offset)
	}
}

func TestMergeEnhancedPathWhenForced(t *testing.T) {
	a := externalTrack("en",
		subtitle.NewEvent(0, 2, "Hello there"),
		subtitle.NewEvent(5, 7, "General Kenobi"))
	b := externalTrack("zh",
		subtitle.NewEvent(0.1, 2, "你好"),
		subtitle.NewEvent(5.2, 7, "将军"))

	outcome, err := Merge(context.Background(), a, b, Options{EnhancedAlignment: true})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if outcome.Path != PathEnhancedAlign {
		t.Fatalf("Path = %q, want %q", outcome.Path, PathEnhancedAlign)
	}
	if len(outcome.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(outcome.Events))
	}
	if outcome.Events[0].Text != "Hello there\n你好" {
		t.Errorf("merged[0].Text = %q", outcome.Events[0].Text)
	}
}

func TestMergeEnhancedPathOnPoorSync(t *testing.T) {
	a := externalTrack("en",
		subtitle.NewEvent(0, 2, "Hello there"),
		subtitle.NewEvent(20, 22, "General Kenobi"))
	b := externalTrack("zh",
		subtitle.NewEvent(4, 6, "你好"),
		subtitle.NewEvent(36, 38, "将军"))

	outcome, err := Merge(context.Background(), a, b, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if outcome.Path != PathEnhancedAlign {
		t.Errorf("Path = %q, want %q for poorly synced external tracks", outcome.Path, PathEnhancedAlign)
	}
}

func TestMergeMixedRealignPath(t *testing.T) {
	embedded := embeddedTrack("zh",
		subtitle.NewEvent(10, 12, "alpha beta"),
		subtitle.NewEvent(20, 22, "gamma delta"),
		subtitle.NewEvent(30, 32, "epsilon zeta"))
	// Same dialogue on a timeline offset by ten minutes.
	external := externalTrack("en",
		subtitle.NewEvent(610, 612, "alpha beta"),
		subtitle.NewEvent(620, 622, "gamma delta"),
		subtitle.NewEvent(630, 632, "epsilon zeta"))

	outcome, err := Merge(context.Background(), external, embedded, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if outcome.Path != PathMixedRealign {
		t.Fatalf("Path = %q, want %q", outcome.Path, PathMixedRealign)
	}
	if len(outcome.Events) != len(embedded.Events) {
		t.Fatalf("got %d events, want %d", len(outcome.Events), len(embedded.Events))
	}
	for i, ev := range outcome.Events {
		want := embedded.Events[i]
		if ev.Start != want.Start || ev.End != want.End {
			t.Errorf("merged[%d] spans [%v, %v], want embedded [%v, %v]",
				i, ev.Start, ev.End, want.Start, want.End)
		}
	}
	if outcome.Events[0].Text != "alpha beta\nalpha beta" {
		t.Errorf("merged[0].Text = %q", outcome.Events[0].Text)
	}
}

func TestMergeAntiJitterApplied(t *testing.T) {
	a := externalTrack("en",
		subtitle.NewEvent(0, 1, "ha"),
		subtitle.NewEvent(1.05, 2, "ha"))
	b := externalTrack("zh",
		subtitle.NewEvent(0, 1, "哈哈"),
		subtitle.NewEvent(1.05, 2, "哈哈"))

	outcome, err := Merge(context.Background(), a, b, Options{AntiJitter: true})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(outcome.Events) != 1 {
		t.Fatalf("got %d events, want 1 after jitter removal", len(outcome.Events))
	}
	if outcome.Events[0].Start != 0 || outcome.Events[0].End != 2 {
		t.Errorf("combined span [%v, %v], want [0, 2]", outcome.Events[0].Start, outcome.Events[0].End)
	}
}

func TestMergeLogsStageFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	a := externalTrack("en",
		subtitle.NewEvent(0, 2, "Hello"),
		subtitle.NewEvent(5, 7, "World"))
	b := externalTrack("zh",
		subtitle.NewEvent(0.2, 2.1, "你好"),
		subtitle.NewEvent(5.1, 7.2, "世界"))

	ctx := services.WithFile(context.Background(), "movie.en.srt")
	if _, err := Merge(ctx, a, b, Options{Logger: logger}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"stage":"assess"`, `"stage":"global-sync"`, `"file":"movie.en.srt"`} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %s: %s", want, out)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	opts, err := OptionsFromConfig(&cfg, nil, nil)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Strategy != syncer.StrategyAuto {
		t.Errorf("Strategy = %q, want auto", opts.Strategy)
	}
	if opts.TextOrder != "first" {
		t.Errorf("TextOrder = %q, want first", opts.TextOrder)
	}
	if !opts.AntiJitter {
		t.Error("AntiJitter should carry over from defaults")
	}

	cfg.Merge.TextOrder = "second"
	opts, err = OptionsFromConfig(&cfg, nil, nil)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.TextOrder != "second" {
		t.Errorf("TextOrder = %q, want second", opts.TextOrder)
	}

	cfg.Sync.Strategy = "bogus"
	if _, err := OptionsFromConfig(&cfg, nil, nil); err == nil {
		t.Error("OptionsFromConfig accepted an unknown strategy")
	}
}
