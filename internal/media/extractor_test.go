package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subweave/internal/services"
	"subweave/internal/subtitle"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
hello there

2
00:00:05,000 --> 00:00:07,000
general remark
`

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "tags": {"language": "eng"}},
    {"index": 2, "codec_name": "subrip", "codec_type": "subtitle",
     "tags": {"language": "chi", "title": "Simplified"}, "disposition": {"forced": 0}},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle",
     "tags": {"language": "eng"}, "disposition": {"forced": 1}}
  ]
}`

func fakeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(path, []byte("not a real container"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListSubtitleTracks(t *testing.T) {
	video := fakeVideo(t)
	extractor := NewExtractor()
	extractor.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("unexpected tool %q", name)
		}
		return []byte(probeJSON), nil
	}

	tracks, err := extractor.ListSubtitleTracks(context.Background(), video)
	if err != nil {
		t.Fatalf("ListSubtitleTracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(tracks))
	}
	first := tracks[0]
	if first.TrackID != 2 || first.Language != "chi" || first.Title != "Simplified" || first.Forced {
		t.Errorf("track 0 = %+v", first)
	}
	if !first.IsEmbedded() {
		t.Error("probed tracks must be embedded")
	}
	if !tracks[1].Forced {
		t.Error("track 3 should carry the forced disposition")
	}
}

func TestListSubtitleTracksMissingFile(t *testing.T) {
	extractor := NewExtractor()
	_, err := extractor.ListSubtitleTracks(context.Background(), filepath.Join(t.TempDir(), "absent.mkv"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExtractTrackViaFFmpeg(t *testing.T) {
	video := fakeVideo(t)
	extractor := NewExtractor()
	extractor.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Fatalf("unexpected tool %q", name)
		}
		dest := args[len(args)-1]
		return nil, os.WriteFile(dest, []byte(sampleSRT), 0o644)
	}

	events, err := extractor.ExtractTrack(context.Background(), video, subtitle.TrackInfo{TrackID: 2})
	if err != nil {
		t.Fatalf("ExtractTrack: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Text != "hello there" {
		t.Errorf("event 0 text = %q", events[0].Text)
	}
}

func TestExtractTrackFallsBackToMkvextract(t *testing.T) {
	video := fakeVideo(t)
	var tools []string
	extractor := NewExtractor()
	extractor.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		tools = append(tools, name)
		switch name {
		case "ffmpeg":
			return nil, errors.New("unsupported codec")
		case "mkvextract":
			spec := args[len(args)-1]
			dest := spec[strings.Index(spec, ":")+1:]
			return nil, os.WriteFile(dest, []byte(sampleSRT), 0o644)
		default:
			return nil, fmt.Errorf("unexpected tool %q", name)
		}
	}

	events, err := extractor.ExtractTrack(context.Background(), video, subtitle.TrackInfo{TrackID: 2})
	if err != nil {
		t.Fatalf("ExtractTrack: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d", len(events))
	}
	if len(tools) != 2 || tools[0] != "ffmpeg" || tools[1] != "mkvextract" {
		t.Errorf("tool order = %v", tools)
	}
}

func TestExtractTrackToolChainExhausted(t *testing.T) {
	video := fakeVideo(t)
	extractor := NewExtractor()
	extractor.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("broken tool")
	}

	_, err := extractor.ExtractTrack(context.Background(), video, subtitle.TrackInfo{TrackID: 2})
	if !errors.Is(err, services.ErrExtractionFailure) {
		t.Fatalf("err = %v, want ErrExtractionFailure", err)
	}
	if services.IsFatalForFile(err) {
		t.Error("extraction failure must stay non-fatal for the run")
	}
}

func TestExtractTrackEmptyOutput(t *testing.T) {
	video := fakeVideo(t)
	extractor := NewExtractor()
	extractor.runCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		dest := args[len(args)-1]
		return nil, os.WriteFile(dest, []byte("\n"), 0o644)
	}

	_, err := extractor.ExtractTrack(context.Background(), video, subtitle.TrackInfo{TrackID: 2})
	if !errors.Is(err, services.ErrExtractionFailure) {
		t.Fatalf("err = %v, want ErrExtractionFailure", err)
	}
}

func TestSelectTrack(t *testing.T) {
	tracks := []subtitle.TrackInfo{
		{TrackID: 2, Language: "eng", Forced: true},
		{TrackID: 3, Language: "eng"},
		{TrackID: 4, Language: "chi"},
	}

	got, ok := SelectTrack(tracks, "english")
	if !ok || got.TrackID != 3 {
		t.Errorf("SelectTrack(english) = %+v ok=%v, want track 3", got, ok)
	}

	got, ok = SelectTrack(tracks, "zh")
	if !ok || got.TrackID != 4 {
		t.Errorf("SelectTrack(zh) = %+v ok=%v, want track 4", got, ok)
	}

	got, ok = SelectTrack(tracks, "ja")
	if ok {
		t.Error("no japanese track exists; ok should be false")
	}
	if got.TrackID == 0 {
		t.Error("a least-bad candidate should still be returned")
	}

	if _, ok := SelectTrack(nil, "en"); ok {
		t.Error("empty track list should not select")
	}
}
