package usecase

import (
	"strings"

	"ArxivReader/internal/domain"
)

// predicate keeps or drops a single record.
type predicate func(p domain.PaperRecord) bool

// ApplyFilters narrows papers by category, then search text, then quick
// filter. The input slice is never modified and order is preserved.
func ApplyFilters(papers []domain.PaperRecord, state domain.FilterState, quick []domain.QuickFilter) []domain.PaperRecord {
	stages := []predicate{categoryStage(state)}
	if s := searchStage(state.SearchQuery); s != nil {
		stages = append(stages, s)
	}
	if s := quickStage(state.QuickFilterKey, quick); s != nil {
		stages = append(stages, s)
	}

	out := make([]domain.PaperRecord, 0, len(papers))
	for _, p := range papers {
		keep := true
		for _, stage := range stages {
			if !stage(p) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	return out
}

func categoryStage(state domain.FilterState) predicate {
	return func(p domain.PaperRecord) bool {
		return state.IsActive(p.Category)
	}
}

func searchStage(query string) predicate {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	return func(p domain.PaperRecord) bool {
		return strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Abstract), query) ||
			strings.Contains(strings.ToLower(p.Authors), query)
	}
}

// quickStage returns nil for the "all" sentinel and for unknown keys.
func quickStage(key string, groups []domain.QuickFilter) predicate {
	if key == "" || key == domain.QuickFilterAll {
		return nil
	}

	group, ok := FindQuickFilter(groups, key)
	if !ok {
		return nil
	}

	keywords := make([]string, 0, len(group.Keywords))
	for _, kw := range group.Keywords {
		if kw = strings.ToLower(kw); strings.TrimSpace(kw) != "" {
			keywords = append(keywords, kw)
		}
	}

	return func(p domain.PaperRecord) bool {
		text := strings.ToLower(p.Title + " " + p.Abstract)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

// FindQuickFilter looks a keyword group up by key.
func FindQuickFilter(groups []domain.QuickFilter, key string) (domain.QuickFilter, bool) {
	for _, g := range groups {
		if strings.EqualFold(g.Key, key) {
			return g, true
		}
	}
	return domain.QuickFilter{}, false
}
