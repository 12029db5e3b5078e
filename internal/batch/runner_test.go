package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Batch.DBPath = filepath.Join(dir, "runs.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return &cfg
}

func TestRunnerIsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg.Batch.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var calls atomic.Int32
	process := func(ctx context.Context, job Job) (JobReport, error) {
		calls.Add(1)
		if job.First == "bad.srt" {
			return JobReport{}, errors.New("boom")
		}
		return JobReport{Output: job.First + ".out", EventCount: 1, MergePath: "timing-preservation"}, nil
	}

	runner, err := NewRunner(cfg, store, nil, WithWorkers(2), WithProcessFunc(process))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	jobs := []Job{
		{First: "one.srt", Second: "one.zh.srt"},
		{First: "bad.srt", Second: "bad.zh.srt"},
		{First: "two.srt", Second: "two.zh.srt"},
	}
	summary, err := runner.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("process called %d times, want 3", calls.Load())
	}
	if summary.Total != 3 || summary.Completed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	results, err := store.Results(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	failures := 0
	for _, result := range results {
		if result.Status == ResultFailed {
			failures++
			if result.ErrorMessage == "" {
				t.Error("failed result missing error message")
			}
		}
	}
	if failures != 1 {
		t.Errorf("recorded %d failures, want 1", failures)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg.Batch.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	process := func(ctx context.Context, job Job) (JobReport, error) {
		if calls.Add(1) == 1 {
			cancel()
		}
		return JobReport{Output: "x"}, nil
	}

	runner, err := NewRunner(cfg, store, nil, WithWorkers(1), WithProcessFunc(process))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{First: "a.srt", Second: "b.srt"}
	}
	if _, err := runner.Run(ctx, jobs); err == nil {
		t.Error("Run should surface context cancellation")
	}
	if calls.Load() == 10 {
		t.Error("all jobs ran despite cancellation")
	}
}

func TestRunnerLogsCarryRunContext(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg.Batch.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	process := func(ctx context.Context, job Job) (JobReport, error) {
		if _, ok := services.RunIDFromContext(ctx); !ok {
			t.Error("job context missing run identifier")
		}
		if file, ok := services.FileFromContext(ctx); !ok || file != job.primary() {
			t.Errorf("job context file = %q, want %q", file, job.primary())
		}
		return JobReport{Output: "merged.srt", EventCount: 2}, nil
	}

	runner, err := NewRunner(cfg, store, nil, WithWorkers(1), WithLogger(logger), WithProcessFunc(process))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	summary, err := runner.Run(context.Background(), []Job{{First: "a.en.srt", Second: "a.zh.srt"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"run_id":"`+summary.RunID+`"`) {
		t.Errorf("logs missing run_id %q: %s", summary.RunID, out)
	}
	if !strings.Contains(out, `"file":"a.en.srt"`) {
		t.Errorf("logs missing file field: %s", out)
	}
	if !strings.Contains(out, `"elapsed"`) {
		t.Errorf("run summary log missing elapsed duration: %s", out)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if got := defaultWorkers(3); got != 3 {
		t.Errorf("defaultWorkers(3) = %d", got)
	}
	if got := defaultWorkers(0); got < 1 || got > 4 {
		t.Errorf("defaultWorkers(0) = %d, want 1..4", got)
	}
}

func TestDiscoverPairsFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"movie.mkv",
		"movie.zh.srt",
		"show.en.srt",
		"show.zh.srt",
		"orphan.srt",
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := Discover(dir, []string{".srt"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2: %+v", len(jobs), jobs)
	}

	byPrimary := make(map[string]Job)
	for _, job := range jobs {
		byPrimary[filepath.Base(job.primary())] = job
	}
	video, ok := byPrimary["movie.mkv"]
	if !ok || filepath.Base(video.External) != "movie.zh.srt" {
		t.Errorf("video pairing = %+v", video)
	}
	pair, ok := byPrimary["show.en.srt"]
	if !ok || filepath.Base(pair.Second) != "show.zh.srt" {
		t.Errorf("subtitle pairing = %+v", pair)
	}
}

func TestTrimLanguageTag(t *testing.T) {
	tests := []struct {
		stem string
		want string
	}{
		{"/media/movie.zh", "/media/movie"},
		{"/media/movie.eng", "/media/movie"},
		{"/media/movie", "/media/movie"},
		{"/media/movie.abc", "/media/movie.abc"},
		{"/media/season.01", "/media/season.01"},
		{"/media/archive.tar", "/media/archive.tar"},
		{"/dir.en/movie", "/dir.en/movie"},
	}
	for _, tt := range tests {
		if got := trimLanguageTag(tt.stem); got != tt.want {
			t.Errorf("trimLanguageTag(%q) = %q, want %q", tt.stem, got, tt.want)
		}
	}
}

func TestLanguageFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/media/movie.zh.srt", "zh"},
		{"/media/movie.eng.srt", "en"},
		{"/media/movie.srt", ""},
		{"/media/movie.xx.srt", ""},
		{"/media/movie.abc.srt", ""},
	}
	for _, tt := range tests {
		if got := languageFromFilename(tt.path); got != tt.want {
			t.Errorf("languageFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPreflightReportsDirectories(t *testing.T) {
	cfg := testConfig(t)
	results := Preflight(cfg, false)
	byName := make(map[string]CheckResult)
	for _, result := range results {
		byName[result.Name] = result
	}
	if !byName["Work directory"].Passed {
		t.Errorf("work dir check failed: %+v", byName["Work directory"])
	}
	if !byName["Output directory"].Passed {
		t.Errorf("output dir check failed: %+v", byName["Output directory"])
	}

	cfg.Paths.WorkDir = filepath.Join(cfg.Paths.WorkDir, "missing")
	results = Preflight(cfg, true)
	for _, result := range results {
		if result.Name == "Work directory" && result.Passed {
			t.Error("missing work dir should fail preflight")
		}
	}
	if FirstFailure(results) == "" {
		t.Error("FirstFailure should name the failed check")
	}
}
