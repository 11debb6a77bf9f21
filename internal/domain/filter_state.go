package domain

import (
	"fmt"
	"sort"
	"strings"
)

// DateRange selects the aggregation mode.
type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// ParseDateRange accepts today, week or month (case-insensitive).
func ParseDateRange(value string) (DateRange, error) {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(value))); r {
	case RangeToday, RangeWeek, RangeMonth:
		return r, nil
	case "":
		return RangeToday, nil
	default:
		return "", fmt.Errorf("unknown date range %q", value)
	}
}

// IsRanged reports whether the range is served by date-bounded queries.
func (r DateRange) IsRanged() bool {
	return r == RangeWeek || r == RangeMonth
}

// Days is the width of the query window; zero for the snapshot mode.
func (r DateRange) Days() int {
	switch r {
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	default:
		return 0
	}
}

// FilterState is the user-driven filter configuration. Values are immutable:
// every With* method returns a new state.
type FilterState struct {
	ActiveCategories map[string]bool
	SearchQuery      string
	QuickFilterKey   string
	DateRange        DateRange
}

// NewFilterState builds a state with the given categories active.
func NewFilterState(active []string, quick string, dateRange DateRange) FilterState {
	set := make(map[string]bool, len(active))
	for _, id := range active {
		set[id] = true
	}
	if quick == "" {
		quick = QuickFilterAll
	}
	if dateRange == "" {
		dateRange = RangeToday
	}
	return FilterState{
		ActiveCategories: set,
		QuickFilterKey:   quick,
		DateRange:        dateRange,
	}
}

// IsActive reports whether the category is selected.
func (s FilterState) IsActive(category string) bool {
	return s.ActiveCategories[category]
}

// Active returns the selected category ids, sorted.
func (s FilterState) Active() []string {
	ids := make([]string, 0, len(s.ActiveCategories))
	for id, on := range s.ActiveCategories {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// WithCategoryToggled flips membership of a category.
func (s FilterState) WithCategoryToggled(category string) FilterState {
	next := s.clone()
	if next.ActiveCategories[category] {
		delete(next.ActiveCategories, category)
	} else {
		next.ActiveCategories[category] = true
	}
	return next
}

// WithSearch replaces the free-text query.
func (s FilterState) WithSearch(query string) FilterState {
	next := s.clone()
	next.SearchQuery = query
	return next
}

// WithQuickFilter selects a keyword group; empty means all.
func (s FilterState) WithQuickFilter(key string) FilterState {
	next := s.clone()
	if key == "" {
		key = QuickFilterAll
	}
	next.QuickFilterKey = key
	return next
}

// WithDateRange switches the aggregation mode.
func (s FilterState) WithDateRange(r DateRange) FilterState {
	next := s.clone()
	next.DateRange = r
	return next
}

func (s FilterState) clone() FilterState {
	next := s
	next.ActiveCategories = make(map[string]bool, len(s.ActiveCategories))
	for id, on := range s.ActiveCategories {
		if on {
			next.ActiveCategories[id] = true
		}
	}
	return next
}
