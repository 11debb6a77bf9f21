package ports

import (
	"context"
	"errors"
	"time"

	"ArxivReader/internal/domain"
)

// ErrSlotNotFound is returned by SlotStore.Read when nothing was written yet.
var ErrSlotNotFound = errors.New("slot not found")

// Transport fetches the raw body of a target URL, directly or through a relay.
type Transport interface {
	Name() string
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// FeedParser turns a raw feed document into paper records. Malformed input
// yields an empty slice, never an error.
type FeedParser interface {
	Name() string
	Parse(body []byte, source domain.SourceDescriptor) []domain.PaperRecord
}

// PaperSource produces one deduplicated collection per aggregation cycle.
type PaperSource interface {
	Aggregate(ctx context.Context, state domain.FilterState) (domain.AggregateResult, error)
}

// SlotStore persists opaque values under a name.
type SlotStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// SlotWatcher notifies about slot changes made outside the process.
type SlotWatcher interface {
	Watch(ctx context.Context, name string, onChange func()) error
}

// Scheduler controls when refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
