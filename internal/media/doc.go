// Package media shells out to ffprobe, ffmpeg, and mkvextract to discover
// and extract embedded subtitle tracks. Every subprocess runs under an
// explicit timeout and every temporary artifact is removed on all exit
// paths. A failed extraction reports the track unusable without failing the
// surrounding run.
package media
