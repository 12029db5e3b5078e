// Package syncer decides how two subtitle tracks relate in time.
//
// The assessor classifies how well two tracks already line up; the global
// synchronizer picks a reference track, finds one consensus offset with a
// pluggable strategy, and shifts the non-reference track onto the reference
// timeline. Reference timing is never modified.
package syncer
