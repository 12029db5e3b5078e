package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subweave/internal/config"
	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/media"
	"subweave/internal/pipeline"
	"subweave/internal/services"
	"subweave/internal/subtitle"
	"subweave/internal/syncer"
)

// videoExtensions are the container formats discovery pairs subtitles with.
var videoExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".m4v": {},
	".avi": {},
	".ts":  {},
}

// IsVideoPath reports whether a path looks like a video container.
func IsVideoPath(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Job is one merge unit. Either Video is set and the embedded track is
// extracted to pair with External, or First and Second name two external
// subtitle files.
type Job struct {
	Video    string
	External string
	First    string
	Second   string
	Output   string
}

func (j Job) primary() string {
	if j.Video != "" {
		return j.Video
	}
	return j.First
}

func (j Job) secondary() string {
	if j.Video != "" {
		return j.External
	}
	return j.Second
}

// JobReport is what one successful merge hands back for the run report.
type JobReport struct {
	Output     string
	MergePath  string
	SyncLevel  string
	TimeOffset float64
	Confidence float64
	EventCount int
}

// ProcessFunc executes one job. Swapped in tests.
type ProcessFunc func(ctx context.Context, job Job) (JobReport, error)

// Runner fans jobs out over a bounded worker pool and records every outcome
// in the store. A failing file is logged and recorded, never fatal for the
// run.
type Runner struct {
	cfg     *config.Config
	store   *Store
	logger  *slog.Logger
	workers int
	process ProcessFunc
}

// RunnerOption adjusts runner construction.
type RunnerOption func(*Runner)

// WithWorkers overrides the worker pool size.
func WithWorkers(workers int) RunnerOption {
	return func(r *Runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProcessFunc replaces the job executor.
func WithProcessFunc(process ProcessFunc) RunnerOption {
	return func(r *Runner) {
		if process != nil {
			r.process = process
		}
	}
}

// NewRunner builds a runner over the given config and results store.
func NewRunner(cfg *config.Config, store *Store, translator syncer.Translator, opts ...RunnerOption) (*Runner, error) {
	runner := &Runner{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewNop(),
		workers: defaultWorkers(cfg.Batch.Workers),
	}
	for _, opt := range opts {
		opt(runner)
	}
	if runner.process == nil {
		mergeOpts, err := pipeline.OptionsFromConfig(cfg, translator, runner.logger)
		if err != nil {
			return nil, err
		}
		runner.process = MergeProcessor(cfg, mergeOpts, runner.logger)
	}
	return runner, nil
}

func defaultWorkers(configured int) int {
	if configured > 0 {
		return configured
	}
	return min(4, runtime.NumCPU())
}

// Run executes all jobs and returns the run summary. The run stops early
// only on context cancellation; individual failures are recorded and
// skipped.
func (r *Runner) Run(ctx context.Context, jobs []Job) (RunSummary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	started := time.Now()
	logger := logging.NewComponentLogger(r.logger, "batch")
	runLogger := logging.WithContext(ctx, logger)
	runLogger.Info("batch run starting",
		logging.Int("jobs", len(jobs)),
		logging.Int("workers", r.workers))

	if err := r.store.BeginRun(ctx, runID, len(jobs)); err != nil {
		return RunSummary{}, err
	}

	queue := make(chan Job)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	var recordErr error

	record := func(result FileResult) {
		mu.Lock()
		defer mu.Unlock()
		if err := r.store.Record(ctx, result); err != nil && recordErr == nil {
			recordErr = err
		}
	}

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if ctx.Err() != nil {
					return
				}
				r.runJob(ctx, runID, job, logger, record)
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if err := r.store.FinishRun(ctx, runID); err != nil {
		return RunSummary{}, err
	}
	if recordErr != nil {
		return RunSummary{}, recordErr
	}

	summary, err := r.store.Summary(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	runLogger.Info("batch run finished",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", time.Since(started)))
	return summary, ctx.Err()
}

func (r *Runner) runJob(ctx context.Context, runID string, job Job, logger *slog.Logger, record func(FileResult)) {
	fileCtx := services.WithFile(ctx, job.primary())
	jobLogger := logging.WithContext(fileCtx, logger)
	report, err := r.process(fileCtx, job)
	if err != nil {
		jobLogger.Error("file failed",
			logging.String("secondary", job.secondary()),
			logging.Error(err))
		record(FileResult{
			RunID:        runID,
			Primary:      job.primary(),
			Secondary:    job.secondary(),
			Status:       ResultFailed,
			ErrorMessage: err.Error(),
		})
		return
	}
	jobLogger.Info("file merged",
		logging.String("output", report.Output),
		logging.Int("events", report.EventCount))
	record(FileResult{
		RunID:      runID,
		Primary:    job.primary(),
		Secondary:  job.secondary(),
		Output:     report.Output,
		Status:     ResultCompleted,
		MergePath:  report.MergePath,
		SyncLevel:  report.SyncLevel,
		TimeOffset: report.TimeOffset,
		Confidence: report.Confidence,
		EventCount: report.EventCount,
	})
}

// MergeProcessor wires the real per-file path: load both tracks, extracting
// the embedded one when a video is given, run the pipeline, and write the
// merged SRT. The single-file merge command runs the same function with one
// job.
func MergeProcessor(cfg *config.Config, opts pipeline.Options, logger *slog.Logger) ProcessFunc {
	extractor := media.NewExtractor(
		media.WithBinaries(cfg.Tools.FFprobe, cfg.Tools.FFmpeg, cfg.Tools.Mkvextract),
		media.WithLogger(logger),
	)
	return func(ctx context.Context, job Job) (JobReport, error) {
		a, b, err := loadTracks(ctx, extractor, cfg, job)
		if err != nil {
			return JobReport{}, err
		}
		outcome, err := pipeline.Merge(ctx, a, b, opts)
		if err != nil {
			return JobReport{}, err
		}
		output := job.Output
		if output == "" {
			output = defaultOutputPath(cfg.Paths.OutputDir, job.primary())
		}
		if err := subtitle.WriteSRT(output, outcome.Events); err != nil {
			return JobReport{}, err
		}
		return JobReport{
			Output:     output,
			MergePath:  string(outcome.Path),
			SyncLevel:  string(outcome.SyncLevel),
			TimeOffset: outcome.Offset,
			Confidence: outcome.Confidence,
			EventCount: len(outcome.Events),
		}, nil
	}
}

func loadTracks(ctx context.Context, extractor *media.Extractor, cfg *config.Config, job Job) (syncer.Track, syncer.Track, error) {
	if job.Video != "" {
		tracks, err := extractor.ListSubtitleTracks(ctx, job.Video)
		if err != nil {
			return syncer.Track{}, syncer.Track{}, err
		}
		info, ok := media.SelectTrack(tracks, cfg.Sync.LanguagePreference)
		if !ok && len(tracks) == 0 {
			return syncer.Track{}, syncer.Track{}, services.Wrap(services.ErrNotFound, "batch", "load",
				fmt.Sprintf("no embedded subtitle tracks in %s", job.Video), nil)
		}
		embedded, err := extractor.ExtractTrack(ctx, job.Video, info)
		if err != nil {
			return syncer.Track{}, syncer.Track{}, err
		}
		external, err := loadExternal(job.External)
		if err != nil {
			return syncer.Track{}, syncer.Track{}, err
		}
		return syncer.Track{Events: embedded, Info: info}, external, nil
	}

	first, err := loadExternal(job.First)
	if err != nil {
		return syncer.Track{}, syncer.Track{}, err
	}
	second, err := loadExternal(job.Second)
	if err != nil {
		return syncer.Track{}, syncer.Track{}, err
	}
	return first, second, nil
}

func loadExternal(path string) (syncer.Track, error) {
	events, err := subtitle.ParseSRT(path)
	if err != nil {
		return syncer.Track{}, err
	}
	return syncer.Track{
		Events: events,
		Info: subtitle.TrackInfo{
			Source:   subtitle.SourceExternal,
			Language: languageFromFilename(path),
			Path:     path,
		},
	}, nil
}

// languageFromFilename reads a "movie.zh.srt" style language tag.
func languageFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return ""
	}
	tag := base[idx+1:]
	if !language.Known(tag) {
		return ""
	}
	return language.ToISO2(tag)
}

func defaultOutputPath(outputDir, primary string) string {
	base := filepath.Base(primary)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+".bilingual.srt")
}

// Discover walks root for merge candidates. A subtitle file pairs with a
// video sharing its stem when one exists; otherwise two subtitle files that
// differ only in a trailing language tag pair with each other.
func Discover(root string, extensions []string) ([]Job, error) {
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	videos := make(map[string]string)
	subsByStem := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		stemPath := strings.TrimSuffix(path, filepath.Ext(path))
		if _, ok := videoExtensions[ext]; ok {
			videos[stemPath] = path
			return nil
		}
		if _, ok := extSet[ext]; ok {
			subsByStem[trimLanguageTag(stemPath)] = append(subsByStem[trimLanguageTag(stemPath)], path)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "discover", "walk directory", err)
	}

	stems := make([]string, 0, len(subsByStem))
	for stem := range subsByStem {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	var jobs []Job
	for _, stem := range stems {
		subs := subsByStem[stem]
		sort.Strings(subs)
		if video, ok := videos[stem]; ok {
			jobs = append(jobs, Job{Video: video, External: subs[0]})
			continue
		}
		if len(subs) >= 2 {
			jobs = append(jobs, Job{First: subs[0], Second: subs[1]})
		}
	}
	return jobs, nil
}

// trimLanguageTag strips a trailing ".zh" / ".eng" style language suffix so
// "movie.zh" and "movie.en" share the stem "movie".
func trimLanguageTag(stem string) string {
	dir, base := filepath.Split(stem)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return stem
	}
	tag := base[idx+1:]
	if !language.Known(tag) && !strings.EqualFold(tag, "und") {
		return stem
	}
	return dir + base[:idx]
}
