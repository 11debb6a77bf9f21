package usecase

import (
	"time"

	"ArxivReader/internal/domain"
)

// ClassifyEmpty explains an empty aggregate. It depends only on its inputs.
func ClassifyEmpty(mode domain.DateRange, weekday time.Weekday, count int) domain.EmptyReason {
	if count > 0 {
		return domain.EmptyNone
	}
	if mode.IsRanged() {
		return domain.EmptyNoMatchForRange
	}
	if weekday == time.Saturday || weekday == time.Sunday {
		return domain.EmptyWeekend
	}
	return domain.EmptyUnavailable
}
