package availability

import "time"

// IntervalsOverlap reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching intervals do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
