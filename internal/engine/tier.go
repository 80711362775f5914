package engine

import (
	"math"

	"capitation-engine/internal/rules"
)

// satisfies reports whether v meets threshold in the given direction. NaN
// never satisfies anything.
func satisfies(direction string, v, threshold float64) bool {
	if math.IsNaN(v) {
		return false
	}
	switch direction {
	case rules.DirectionAtLeast:
		return v >= threshold
	case rules.DirectionAtMost:
		return v <= threshold
	case rules.DirectionBelow:
		return v < threshold
	}
	return false
}

// Lookup returns the points of the first ladder step v satisfies, or the
// ladder's else points.
func Lookup(l rules.Ladder, v float64) float64 {
	for _, step := range l.Steps {
		if satisfies(l.Direction, v, step.Threshold) {
			return step.Points
		}
	}
	return l.Else
}
