// Package pipeline orchestrates one bilingual merge from start to finish:
// assess how the tracks line up, pick a merge strategy, synchronize
// globally, merge, clean up jitter, and validate the result. Everything is
// strictly sequential per file; options are threaded through parameters so
// there is no shared mutable state between files.
package pipeline
