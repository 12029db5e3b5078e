// Package subtitle defines the subtitle event data model shared by the
// alignment and merge engine, plus an SRT codec for reading and writing
// event sequences.
//
// Events are immutable value objects: every transform (shift, text
// replacement) returns a new Event so sequences can be reused across
// alignment strategies without aliasing surprises.
package subtitle
