package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlignmentNotFound marks the expected "no anchor met the confidence
	// threshold" condition. Callers fall back to identity (no shift); this is
	// never fatal.
	ErrAlignmentNotFound = errors.New("alignment not found")
	// ErrTimingViolation marks a post-merge validation failure: a reference
	// boundary moved or the event count changed. Fatal for the file.
	ErrTimingViolation = errors.New("timing violation")
	// ErrTranslationUnavailable marks an absent or exhausted translation
	// service. Callers downgrade to pure-similarity strategies.
	ErrTranslationUnavailable = errors.New("translation unavailable")
	// ErrRateLimited marks a translation call rejected by the remote side
	// for pacing reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded marks a permanently exhausted translation quota for
	// the remainder of the run.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrExtractionFailure marks an exhausted extraction tool chain for one
	// track. Non-fatal to the run.
	ErrExtractionFailure = errors.New("extraction failure")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes pipeline context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalForFile reports whether the error should fail the current file.
// Alignment misses and translation outages have defined fallbacks; timing
// violations do not.
func IsFatalForFile(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAlignmentNotFound),
		errors.Is(err, ErrTranslationUnavailable),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrQuotaExceeded):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
