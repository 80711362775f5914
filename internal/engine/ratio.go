package engine

import "math"

// Every derived ratio whose denominator can be zero goes through one of these
// helpers so the sentinel for each metric is decided in one place.

// safeRatio returns num/den, or whenZero when den is zero.
func safeRatio(num, den, whenZero float64) float64 {
	if den == 0 {
		return whenZero
	}
	return num / den
}

// unboundedRatio returns num/den. A zero denominator yields 0 when there is
// nothing to divide and +Inf otherwise.
func unboundedRatio(num, den float64) float64 {
	if den == 0 {
		if num <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	return num / den
}

// perHead divides by max(1, den) for denominators that count people or
// events and may legitimately be zero.
func perHead(num, den float64) float64 {
	return num / math.Max(1, den)
}

func pct(part, whole float64) float64 {
	return safeRatio(part, whole, 0) * 100
}
