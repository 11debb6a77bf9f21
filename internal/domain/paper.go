package domain

import "time"

// PaperRecord is the canonical unit produced by every feed parser.
type PaperRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Abstract  string    `json:"abstract"`
	Authors   string    `json:"authors"`
	Category  string    `json:"category"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SourceDescriptor describes one configured feed/category.
type SourceDescriptor struct {
	ID          string
	DisplayName string
	FeedURL     string
}

// BookmarkRecord is the persisted projection of a PaperRecord.
type BookmarkRecord struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
	AddedAt  time.Time `json:"addedAt"`
}

// NewBookmark projects a paper into a bookmark saved at the given instant.
func NewBookmark(p PaperRecord, at time.Time) BookmarkRecord {
	return BookmarkRecord{
		ID:       p.ID,
		Title:    p.Title,
		Link:     p.Link,
		Category: p.Category,
		AddedAt:  at,
	}
}

// QuickFilter is a named keyword group matched as an OR-substring predicate.
type QuickFilter struct {
	Key      string
	Label    string
	Keywords []string
}

// QuickFilterAll disables the quick-filter stage.
const QuickFilterAll = "all"
