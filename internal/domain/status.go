package domain

// EmptyReason classifies why a view has nothing to show.
type EmptyReason int

const (
	EmptyNone EmptyReason = iota
	// EmptyWeekend: snapshot mode on a day arXiv does not announce.
	EmptyWeekend
	// EmptyUnavailable: snapshot mode returned nothing on a weekday.
	EmptyUnavailable
	// EmptyNoMatchForRange: ranged query returned nothing.
	EmptyNoMatchForRange
	// EmptyFailed: the aggregation itself failed.
	EmptyFailed
	// EmptyFiltered: papers were fetched but the filters hide all of them.
	EmptyFiltered
)

// Message is the user-visible text for the reason.
func (r EmptyReason) Message() string {
	switch r {
	case EmptyWeekend:
		return "No new papers on weekends. arXiv does not publish on Saturday and Sunday; try the week or month range."
	case EmptyUnavailable:
		return "No papers available right now. The feeds may be temporarily unreachable; try refreshing later."
	case EmptyNoMatchForRange:
		return "No papers found for this date range. Try different categories."
	case EmptyFailed:
		return "Failed to fetch papers. Please try again."
	case EmptyFiltered:
		return "No papers match the current filters."
	default:
		return ""
	}
}

func (r EmptyReason) String() string {
	switch r {
	case EmptyWeekend:
		return "weekend"
	case EmptyUnavailable:
		return "unavailable"
	case EmptyNoMatchForRange:
		return "no-match-for-range"
	case EmptyFailed:
		return "failed"
	case EmptyFiltered:
		return "filtered"
	default:
		return "none"
	}
}
