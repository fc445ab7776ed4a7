package model

import "time"

// Punctuality classifies an actual start or end against its scheduled time.
type Punctuality string

const (
	PunctualityOnTime Punctuality = "ON_TIME"
	PunctualityEarly  Punctuality = "EARLY"
	PunctualityLate   Punctuality = "LATE"
)

// ComputePunctuality compares actual to scheduled under the given tolerance.
// Within ±tolerance is ON_TIME; earlier is EARLY; later is LATE with the delay
// in whole minutes. EARLY and ON_TIME report zero delay.
func ComputePunctuality(scheduled, actual time.Time, tolerance time.Duration) (Punctuality, int) {
	diff := actual.Sub(scheduled)

	if diff >= -tolerance && diff <= tolerance {
		return PunctualityOnTime, 0
	}

	if diff < 0 {
		return PunctualityEarly, 0
	}

	return PunctualityLate, int(diff / time.Minute)
}

// DurationMinutes returns the whole-minute length of [start, end). Negative
// ranges collapse to zero.
func DurationMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}

	return int(end.Sub(start) / time.Minute)
}

// ApplyAdjustment returns the total price with an optional signed adjustment
// applied. A nil adjustment leaves the price unchanged.
func ApplyAdjustment(totalPrice float64, adjustment *float64) float64 {
	if adjustment == nil {
		return totalPrice
	}

	return totalPrice + *adjustment
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
