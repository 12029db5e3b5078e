// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names,
// tag extraction, CJK classification) are consolidated here so the track
// selection, synchronization, and translation packages agree on codes.
package language
