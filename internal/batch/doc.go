// Package batch runs the merge pipeline over many files: directory
// discovery, a bounded worker pool, per-file failure isolation, and a
// SQLite-backed run report guarded by a file lock so only one batch writes
// at a time.
package batch
