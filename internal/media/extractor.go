package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/services"
	"subweave/internal/subtitle"
)

const defaultToolTimeout = 2 * time.Minute

// Extractor lists and extracts embedded subtitle tracks from video
// containers.
type Extractor struct {
	ffprobe    string
	ffmpeg     string
	mkvextract string
	timeout    time.Duration
	logger     *slog.Logger

	// runCommand is swapped in tests.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithBinaries overrides the tool names resolved from PATH. Empty values
// keep the defaults.
func WithBinaries(ffprobe, ffmpeg, mkvextract string) ExtractorOption {
	return func(e *Extractor) {
		if strings.TrimSpace(ffprobe) != "" {
			e.ffprobe = strings.TrimSpace(ffprobe)
		}
		if strings.TrimSpace(ffmpeg) != "" {
			e.ffmpeg = strings.TrimSpace(ffmpeg)
		}
		if strings.TrimSpace(mkvextract) != "" {
			e.mkvextract = strings.TrimSpace(mkvextract)
		}
	}
}

// WithToolTimeout bounds each subprocess invocation.
func WithToolTimeout(timeout time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor constructs an Extractor with default tool names.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffprobe:    "ffprobe",
		ffmpeg:     "ffmpeg",
		mkvextract: "mkvextract",
		timeout:    defaultToolTimeout,
		logger:     logging.NewNop(),
	}
	e.runCommand = e.execCommand
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	output, err := exec.CommandContext(runCtx, name, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return output, services.Wrap(services.ErrTimeout, "media", name,
				fmt.Sprintf("%s timed out after %s", name, e.timeout), err)
		}
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Tags        map[string]string `json:"tags"`
	Disposition map[string]int    `json:"disposition"`
}

// ListSubtitleTracks probes the container and returns every embedded
// subtitle stream with its language and disposition metadata.
func (e *Extractor) ListSubtitleTracks(ctx context.Context, video string) ([]subtitle.TrackInfo, error) {
	video = strings.TrimSpace(video)
	if video == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "probe", "video path required", nil)
	}
	if _, err := os.Stat(video); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "media", "probe", "video file not found", err)
		}
		return nil, services.Wrap(services.ErrValidation, "media", "probe", "failed to inspect video file", err)
	}

	output, err := e.runCommand(ctx, e.ffprobe,
		"-v", "error", "-hide_banner", "-show_streams", "-of", "json", "--", video)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "probe", "ffprobe failed", err)
	}
	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "probe", "ffprobe output unreadable", err)
	}

	tracks := make([]subtitle.TrackInfo, 0, 4)
	for _, stream := range result.Streams {
		if !strings.EqualFold(stream.CodecType, "subtitle") {
			continue
		}
		tracks = append(tracks, subtitle.TrackInfo{
			Source:   subtitle.SourceEmbedded,
			Language: language.ExtractFromTags(stream.Tags),
			TrackID:  stream.Index,
			Title:    strings.TrimSpace(stream.Tags["title"]),
			Codec:    stream.CodecName,
			Forced:   stream.Disposition["forced"] == 1,
			Path:     video,
		})
	}
	e.logger.Debug("probed subtitle tracks",
		logging.String("video", video),
		logging.Int("count", len(tracks)))
	return tracks, nil
}

// ExtractTrack pulls one embedded subtitle track out of the container and
// parses it as SRT. It tries ffmpeg first, then mkvextract; the temporary
// extraction directory is removed on every exit path.
func (e *Extractor) ExtractTrack(ctx context.Context, video string, track subtitle.TrackInfo) (subtitle.Sequence, error) {
	video = strings.TrimSpace(video)
	if video == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "extract", "video path required", nil)
	}

	tmpDir, err := os.MkdirTemp("", "subweave-extract-")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "media", "extract", "failed to create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	dest := filepath.Join(tmpDir, fmt.Sprintf("track-%d.srt", track.TrackID))

	ffmpegErr := e.extractWithFFmpeg(ctx, video, track.TrackID, dest)
	if ffmpegErr == nil {
		return e.parseExtracted(dest, track)
	}
	e.logger.Debug("ffmpeg extraction failed, trying mkvextract",
		logging.Int("track", track.TrackID),
		logging.Error(ffmpegErr))

	if mkvErr := e.extractWithMkvextract(ctx, video, track.TrackID, dest); mkvErr != nil {
		return nil, services.Wrap(services.ErrExtractionFailure, "media", "extract",
			fmt.Sprintf("tool chain exhausted for track %d", track.TrackID),
			errors.Join(ffmpegErr, mkvErr))
	}
	return e.parseExtracted(dest, track)
}

func (e *Extractor) extractWithFFmpeg(ctx context.Context, video string, trackID int, dest string) error {
	_, err := e.runCommand(ctx, e.ffmpeg,
		"-y", "-v", "error", "-i", video,
		"-map", fmt.Sprintf("0:%d", trackID),
		"-c:s", "srt", dest)
	return err
}

func (e *Extractor) extractWithMkvextract(ctx context.Context, video string, trackID int, dest string) error {
	_, err := e.runCommand(ctx, e.mkvextract, "tracks", video,
		fmt.Sprintf("%d:%s", trackID, dest))
	return err
}

func (e *Extractor) parseExtracted(path string, track subtitle.TrackInfo) (subtitle.Sequence, error) {
	events, err := subtitle.ParseSRT(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExtractionFailure, "media", "extract",
			fmt.Sprintf("extracted track %d unreadable", track.TrackID), err)
	}
	if len(events) == 0 {
		return nil, services.Wrap(services.ErrExtractionFailure, "media", "extract",
			fmt.Sprintf("extracted track %d contains no events", track.TrackID), nil)
	}
	return events, nil
}

// SelectTrack picks the embedded track that best matches the wanted
// language: an exact language match wins, non-forced beats forced, and the
// lowest stream index breaks ties. The boolean is false when no track
// matches at all.
func SelectTrack(tracks []subtitle.TrackInfo, lang string) (subtitle.TrackInfo, bool) {
	if len(tracks) == 0 {
		return subtitle.TrackInfo{}, false
	}
	best := -1
	bestScore := -1
	for i, track := range tracks {
		score := 0
		if lang != "" && language.Same(track.Language, lang) {
			score += 4
		}
		if !track.Forced {
			score += 2
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if lang != "" && bestScore < 4 {
		// Nothing speaks the wanted language; still return the least-bad
		// candidate but flag the miss.
		return tracks[best], false
	}
	return tracks[best], true
}
