package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/feed"
	"ArxivReader/internal/ports"
)

const defaultMaxResults = 100

// RecordFetcher resolves one target into parsed records; exhaustion yields nil.
type RecordFetcher interface {
	Records(ctx context.Context, target string, parser ports.FeedParser, source domain.SourceDescriptor) []domain.PaperRecord
}

// QueryOptions configures the ranged structured query.
type QueryOptions struct {
	BaseURL    string
	MaxResults int
}

// AggregatorDeps wires the aggregator collaborators.
type AggregatorDeps struct {
	Sources []domain.SourceDescriptor
	Fetcher RecordFetcher
	Parsers *feed.Registry
	Query   QueryOptions
	Now     func() time.Time
	Logger  *slog.Logger
}

// Aggregator fans out one fetch per source and merges the results.
type Aggregator struct {
	sources []domain.SourceDescriptor
	fetcher RecordFetcher
	parsers *feed.Registry
	query   QueryOptions
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.PaperSource = (*Aggregator)(nil)

// NewAggregator constructs the aggregation use case.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	query := deps.Query
	if query.BaseURL == "" {
		query.BaseURL = "https://export.arxiv.org/api/query"
	}
	if query.MaxResults <= 0 {
		query.MaxResults = defaultMaxResults
	}
	return &Aggregator{
		sources: deps.Sources,
		fetcher: deps.Fetcher,
		parsers: deps.Parsers,
		query:   query,
		now:     now,
		logger:  deps.Logger,
	}
}

type fetchJob struct {
	source domain.SourceDescriptor
	target string
}

// Aggregate runs one cycle for the mode selected by state.DateRange. A source
// that cannot be fetched contributes nothing; an error is returned only when
// the orchestration itself breaks.
func (a *Aggregator) Aggregate(ctx context.Context, state domain.FilterState) (domain.AggregateResult, error) {
	startedAt := a.now()
	mode := state.DateRange
	if mode == "" {
		mode = domain.RangeToday
	}

	result := domain.AggregateResult{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: startedAt,
		PerSource: map[string]int{},
	}

	if a.fetcher == nil {
		return result, errors.New("aggregate: no transport configured")
	}

	format := feed.FormatSyndication
	if mode.IsRanged() {
		format = feed.FormatStructuredQuery
	}
	parser, err := a.parsers.Resolve(format)
	if err != nil {
		return result, fmt.Errorf("aggregate: %w", err)
	}

	jobs, err := a.plan(mode, state, startedAt)
	if err != nil {
		return result, fmt.Errorf("aggregate: %w", err)
	}

	a.debug("aggregate start", "run", result.RunID, "mode", mode, "sources", len(jobs))

	perJob := make([][]domain.PaperRecord, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("source %s: panic: %v", job.source.ID, r)
				}
			}()
			perJob[i] = a.fetcher.Records(ctx, job.target, parser, job.source)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("aggregate: %w", err)
	}

	for i, job := range jobs {
		result.PerSource[job.source.ID] = len(perJob[i])
	}
	result.Papers = Dedupe(perJob...)
	result.Empty = ClassifyEmpty(mode, startedAt.Weekday(), len(result.Papers))

	a.debug("aggregate done", "run", result.RunID, "papers", len(result.Papers), "empty", result.Empty.String())
	return result, nil
}

// plan lists the targets in source order. Snapshot mode always covers every
// source; ranged mode covers active categories only.
func (a *Aggregator) plan(mode domain.DateRange, state domain.FilterState, now time.Time) ([]fetchJob, error) {
	jobs := make([]fetchJob, 0, len(a.sources))
	for _, src := range a.sources {
		if !mode.IsRanged() {
			jobs = append(jobs, fetchJob{source: src, target: src.FeedURL})
			continue
		}
		if !state.IsActive(src.ID) {
			continue
		}
		target, err := BuildQueryURL(a.query, src.ID, mode.Days(), now)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, fetchJob{source: src, target: target})
	}
	return jobs, nil
}

// BuildQueryURL builds a category + submission-date query, newest first.
// The window spans days calendar days ending on now, both ends inclusive.
func BuildQueryURL(opts QueryOptions, category string, days int, now time.Time) (string, error) {
	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid query url %s: %w", opts.BaseURL, err)
	}
	if days < 1 {
		days = 1
	}

	now = now.UTC()
	from := now.AddDate(0, 0, -(days - 1))
	search := fmt.Sprintf("cat:%s AND submittedDate:[%s0000 TO %s2359]",
		category, from.Format("20060102"), now.Format("20060102"))

	query := parsed.Query()
	query.Set("search_query", search)
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")
	query.Set("start", "0")
	query.Set("max_results", strconv.Itoa(opts.MaxResults))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Dedupe concatenates the lists in order and keeps the first record per id.
func Dedupe(lists ...[]domain.PaperRecord) []domain.PaperRecord {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	out := make([]domain.PaperRecord, 0, total)
	seen := make(map[string]struct{}, total)
	for _, l := range lists {
		for _, p := range l {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
