// Package anchor discovers correspondence points between two independently
// timed subtitle sequences. Three finders contribute candidates: shared
// translation-invariant keywords, shared multi-digit numbers, and direct text
// similarity for same-language pairs. The aligner merges their output and
// derives one outlier-robust global time offset.
package anchor
