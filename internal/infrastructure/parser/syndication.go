package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/feed"
	"ArxivReader/internal/ports"
)

// authorStrategy extracts the creator of an item; the first non-empty wins.
type authorStrategy func(item *rss.Item) string

var authorStrategies = []authorStrategy{
	plainAuthor,
	dublinCoreCreator,
	namespacedCreator,
}

// SyndicationParser reads the daily RSS announcement feeds.
type SyndicationParser struct {
	now func() time.Time
}

var _ ports.FeedParser = (*SyndicationParser)(nil)

// NewSyndicationParser stamps records with now(); nil means time.Now.
func NewSyndicationParser(now func() time.Time) *SyndicationParser {
	if now == nil {
		now = time.Now
	}
	return &SyndicationParser{now: now}
}

// Name identifies the parser inside the registry.
func (p *SyndicationParser) Name() string {
	return feed.FormatSyndication
}

// Parse maps every usable item to a PaperRecord. Items without a title or a
// link are dropped; a link without an arXiv id gets "{source}-{index}".
func (p *SyndicationParser) Parse(body []byte, source domain.SourceDescriptor) []domain.PaperRecord {
	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil || parsed == nil {
		return nil
	}

	fetchedAt := p.now()
	records := make([]domain.PaperRecord, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		if item == nil {
			continue
		}

		title := cleanFeedTitle(item.Title)
		link := secureURL(item.Link)
		if title == "" || link == "" {
			continue
		}

		id := ExtractID(link)
		if id == "" {
			id = fmt.Sprintf("%s-%d", source.ID, i)
		}

		records = append(records, domain.PaperRecord{
			ID:        id,
			Title:     title,
			Link:      link,
			Abstract:  cleanAbstract(item.Description),
			Authors:   extractAuthors(item),
			Category:  source.ID,
			FetchedAt: fetchedAt,
		})
	}

	return records
}

func extractAuthors(item *rss.Item) string {
	for _, strategy := range authorStrategies {
		if authors := plainText(strategy(item)); authors != "" {
			return authors
		}
	}
	return ""
}

func plainAuthor(item *rss.Item) string {
	return item.Author
}

func dublinCoreCreator(item *rss.Item) string {
	if item.DublinCoreExt == nil {
		return ""
	}
	return strings.Join(item.DublinCoreExt.Creator, ", ")
}

func namespacedCreator(item *rss.Item) string {
	var names []string
	for _, creator := range item.Extensions["dc"]["creator"] {
		if v := strings.TrimSpace(creator.Value); v != "" {
			names = append(names, v)
		}
	}
	return strings.Join(names, ", ")
}
