package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/feed"
	"ArxivReader/internal/ports"
)

// StructuredQueryParser reads arXiv API (Atom) query responses.
type StructuredQueryParser struct {
	now func() time.Time
}

var _ ports.FeedParser = (*StructuredQueryParser)(nil)

// NewStructuredQueryParser stamps records with now(); nil means time.Now.
func NewStructuredQueryParser(now func() time.Time) *StructuredQueryParser {
	if now == nil {
		now = time.Now
	}
	return &StructuredQueryParser{now: now}
}

// Name identifies the parser inside the registry.
func (p *StructuredQueryParser) Name() string {
	return feed.FormatStructuredQuery
}

// Parse maps every entry with a title and an identifier to a PaperRecord.
func (p *StructuredQueryParser) Parse(body []byte, source domain.SourceDescriptor) []domain.PaperRecord {
	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil || parsed == nil {
		return nil
	}

	fetchedAt := p.now()
	records := make([]domain.PaperRecord, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		if entry == nil {
			continue
		}

		title := cleanTitle(entry.Title)
		entryURL := strings.TrimSpace(entry.ID)
		id := ExtractID(entryURL)
		if id == "" {
			id = lastSegment(entryURL)
		}
		link := secureURL(pickLink(entry))
		if title == "" || id == "" || link == "" {
			continue
		}

		records = append(records, domain.PaperRecord{
			ID:        id,
			Title:     title,
			Link:      link,
			Abstract:  cleanAbstract(entry.Summary),
			Authors:   joinAuthors(entry.Authors),
			Category:  source.ID,
			FetchedAt: fetchedAt,
		})
	}

	return records
}

// pickLink prefers the pdf artifact, then the alternate page, then the entry id.
// A link without rel is an alternate link in Atom.
func pickLink(entry *atom.Entry) string {
	for _, l := range entry.Links {
		if l != nil && strings.EqualFold(l.Title, "pdf") && l.Href != "" {
			return l.Href
		}
	}
	for _, l := range entry.Links {
		if l != nil && (l.Rel == "alternate" || l.Rel == "") && l.Href != "" {
			return l.Href
		}
	}
	return entry.ID
}

func joinAuthors(people []*atom.Person) string {
	names := make([]string, 0, len(people))
	for _, person := range people {
		if person == nil {
			continue
		}
		if name := plainText(person.Name); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
