package calendar

import (
	"fmt"
	"time"
)

// ComputeLabel names the school period spanned by [start, end]. The label is for display only.
func ComputeLabel(start, end time.Time) string {
	sm, em := start.Month(), end.Month()
	sy, ey := start.Year(), end.Year()

	switch {
	case monthIn(sm, time.August, time.September) && monthIn(em, time.May, time.June) && ey > sy:
		return fmt.Sprintf("%d-%d", sy, ey)
	case monthIn(sm, time.August, time.September, time.October) && monthIn(em, time.November, time.December, time.January):
		return fmt.Sprintf("Fall Semester %d", sy)
	case monthIn(sm, time.January, time.February) && monthIn(em, time.May, time.June):
		return fmt.Sprintf("Spring Semester %d", ey)
	case monthIn(sm, time.May, time.June) && monthIn(em, time.July, time.August):
		return fmt.Sprintf("Summer Session %d", sy)
	default:
		return fmt.Sprintf("Instructional Period %d to %d", sy, ey)
	}
}

func monthIn(m time.Month, months ...time.Month) bool {
	for _, mm := range months {
		if m == mm {
			return true
		}
	}
	return false
}
