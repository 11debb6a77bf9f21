package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/feed"
	"ArxivReader/internal/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	saturday = time.Date(2025, time.November, 8, 10, 0, 0, 0, time.UTC)
	monday   = time.Date(2025, time.November, 10, 10, 0, 0, 0, time.UTC)
)

func at(t time.Time) func() time.Time { return func() time.Time { return t } }

// fakeFetcher serves canned records per target and remembers what it saw.
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string][]domain.PaperRecord
	panics  map[string]bool
	targets []string
	parsers []string
}

func (f *fakeFetcher) Records(ctx context.Context, target string, parser ports.FeedParser, source domain.SourceDescriptor) []domain.PaperRecord {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.parsers = append(f.parsers, parser.Name())
	f.mu.Unlock()

	if f.panics[target] {
		panic("relay invariant broken")
	}
	return f.records[target]
}

func (f *fakeFetcher) seen() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.targets...), append([]string(nil), f.parsers...)
}

type namedParser string

func (p namedParser) Name() string { return string(p) }

func (namedParser) Parse([]byte, domain.SourceDescriptor) []domain.PaperRecord { return nil }

func testRegistry() *feed.Registry {
	return feed.NewRegistry(namedParser(feed.FormatSyndication), namedParser(feed.FormatStructuredQuery))
}

func paper(id, category, title string) domain.PaperRecord {
	return domain.PaperRecord{
		ID:       id,
		Title:    title,
		Link:     "https://arxiv.org/abs/" + id,
		Category: category,
	}
}

// memorySlots is an in-memory ports.SlotStore.
type memorySlots struct {
	mu       sync.Mutex
	data     map[string][]byte
	writeErr error
}

func newMemorySlots() *memorySlots {
	return &memorySlots{data: map[string][]byte{}}
}

func (m *memorySlots) Read(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[name]
	if !ok {
		return nil, ports.ErrSlotNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *memorySlots) Write(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[name] = append([]byte(nil), data...)
	return nil
}

var errDiskFull = errors.New("disk full")
