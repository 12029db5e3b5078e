package subtitle

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseSRT reads an SRT file and returns its events sorted by start time.
// Malformed cue blocks are skipped rather than failing the whole file.
func ParseSRT(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return ParseSRTContent(string(data)), nil
}

// ParseSRTContent parses SRT-formatted text into a sorted event sequence.
func ParseSRTContent(content string) Sequence {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.TrimPrefix(normalized, "\uFEFF")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return nil
	}

	var events Sequence
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		// Find the timing line; the optional index line precedes it.
		timingIdx := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timingIdx = i
				break
			}
		}
		if timingIdx < 0 || timingIdx+1 > len(lines) {
			continue
		}
		parts := strings.Split(lines[timingIdx], "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := ParseSRTTimestamp(parts[0])
		if err != nil {
			continue
		}
		end, err := ParseSRTTimestamp(parts[1])
		if err != nil {
			continue
		}
		text := strings.Join(lines[timingIdx+1:], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		ev := NewEvent(start, end, text)
		ev.Raw = text
		events = append(events, ev)
	}
	return events.Sorted()
}

// WriteSRT renders the sequence as an SRT file with 1-based cue indices.
func WriteSRT(path string, events Sequence) error {
	return os.WriteFile(path, []byte(FormatSRT(events)), 0o644)
}

// FormatSRT renders the sequence as SRT-formatted text.
func FormatSRT(events Sequence) string {
	var sb strings.Builder
	for i, ev := range events {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(FormatSRTTimestamp(ev.Start))
		sb.WriteString(" --> ")
		sb.WriteString(FormatSRTTimestamp(ev.End))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(ev.Text, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ParseSRTTimestamp converts "HH:MM:SS,mmm" (or with a period separator)
// to seconds.
func ParseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// SRT uses a comma before the milliseconds; tolerate a period.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FormatSRTTimestamp converts seconds to "HH:MM:SS,mmm". Negative values
// render as zero.
func FormatSRTTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
