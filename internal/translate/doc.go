// Package translate talks to the machine-translation HTTP API used for
// cross-language anchor matching. The client paces its calls, retries
// transient failures with exponential backoff, and latches quota exhaustion
// so the rest of a run degrades to pure-similarity strategies instead of
// hammering a dead service.
package translate
