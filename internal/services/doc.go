// Package services provides the shared error taxonomy and context plumbing
// used across the alignment pipeline, the external tool wrappers, and the
// batch runner.
package services
