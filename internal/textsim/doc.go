// Package textsim scores text similarity between subtitle lines. It combines
// several independent sub-metrics into a single deterministic confidence in
// [0, 1], and provides the shared normalization and CJK detection helpers the
// anchor finders build on.
package textsim
