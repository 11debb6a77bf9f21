package domain

import "time"

// AggregateResult is the outcome of one aggregation cycle.
type AggregateResult struct {
	RunID     string
	Mode      DateRange
	Papers    []PaperRecord
	PerSource map[string]int
	Empty     EmptyReason
	StartedAt time.Time
}
