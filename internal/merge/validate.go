package merge

import (
	"fmt"
	"math"

	"subweave/internal/services"
	"subweave/internal/subtitle"
)

// boundaryTolerance is the float slack allowed when comparing preserved
// boundaries against the reference.
const boundaryTolerance = 1e-6

// ValidateTimingPreserved verifies the contract of a timing-preservation
// merge: the merged sequence has exactly one event per reference event and
// every boundary matches the reference within tolerance. A violation is
// fatal for the file being processed.
func ValidateTimingPreserved(reference, merged subtitle.Sequence) error {
	if len(merged) != len(reference) {
		return services.Wrap(services.ErrTimingViolation, "merge", "validate",
			fmt.Sprintf("event count changed: reference %d, merged %d", len(reference), len(merged)), nil)
	}
	for i := range reference {
		if math.Abs(merged[i].Start-reference[i].Start) > boundaryTolerance ||
			math.Abs(merged[i].End-reference[i].End) > boundaryTolerance {
			return services.Wrap(services.ErrTimingViolation, "merge", "validate",
				fmt.Sprintf("boundary drift at event %d: reference [%.6f, %.6f], merged [%.6f, %.6f]",
					i, reference[i].Start, reference[i].End, merged[i].Start, merged[i].End), nil)
		}
	}
	return nil
}
