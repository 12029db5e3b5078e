package subtitle

import (
	"sort"
	"strings"
)

// Event is a single subtitle cue. Start and End are seconds from stream
// origin with End >= Start; negative values clamp to zero on construction.
type Event struct {
	Start float64
	End   float64
	Text  string
	Style string
	Raw   string
}

// NewEvent constructs an event, clamping negative timestamps to zero and
// swapping boundaries when end precedes start.
func NewEvent(start, end float64, text string) Event {
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	if end < start {
		start, end = end, start
	}
	return Event{Start: start, End: end, Text: text}
}

// Duration returns the event length in seconds.
func (e Event) Duration() float64 {
	return e.End - e.Start
}

// Center returns the temporal midpoint of the event.
func (e Event) Center() float64 {
	return (e.Start + e.End) / 2
}

// Shift returns a copy of the event moved by offset seconds. Boundaries
// that would go negative clamp to zero.
func (e Event) Shift(offset float64) Event {
	shifted := e
	shifted.Start = e.Start + offset
	shifted.End = e.End + offset
	if shifted.Start < 0 {
		shifted.Start = 0
	}
	if shifted.End < 0 {
		shifted.End = 0
	}
	return shifted
}

// WithText returns a copy of the event carrying the given text.
func (e Event) WithText(text string) Event {
	updated := e
	updated.Text = text
	return updated
}

// Overlap returns the length in seconds of the intersection between the
// event and the [start, end] interval. Zero when they do not intersect.
func (e Event) Overlap(start, end float64) float64 {
	lo := e.Start
	if start > lo {
		lo = start
	}
	hi := e.End
	if end < hi {
		hi = end
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Sequence is an ordered list of events. All transforms keep the sequence
// sorted by start time.
type Sequence []Event

// Sorted returns a copy of the sequence ordered by start time (end time
// breaks ties).
func (s Sequence) Sorted() Sequence {
	cp := append(Sequence(nil), s...)
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].Start != cp[j].Start {
			return cp[i].Start < cp[j].Start
		}
		return cp[i].End < cp[j].End
	})
	return cp
}

// Shift returns a new sequence with every event moved by offset seconds,
// re-sorted since clamping can reorder events near zero.
func (s Sequence) Shift(offset float64) Sequence {
	if len(s) == 0 {
		return nil
	}
	shifted := make(Sequence, len(s))
	for i, ev := range s {
		shifted[i] = ev.Shift(offset)
	}
	return shifted.Sorted()
}

// FirstStart returns the start time of the earliest event, or 0 for an
// empty sequence.
func (s Sequence) FirstStart() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Start
}

// NonEmpty reports whether the sequence contains at least one event with
// non-blank text.
func (s Sequence) NonEmpty() bool {
	for _, ev := range s {
		if strings.TrimSpace(ev.Text) != "" {
			return true
		}
	}
	return false
}
