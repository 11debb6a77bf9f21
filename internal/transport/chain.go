package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ArxivReader/internal/domain"
	"ArxivReader/internal/ports"
)

// ErrExhausted means every candidate transport failed for a target.
var ErrExhausted = errors.New("all transports failed")

// ErrUnusable marks a body that was delivered but decoded to nothing.
var ErrUnusable = errors.New("response yielded no records")

// FirstSuccess tries the transports in order and returns the first decoded
// value that decode accepts, together with the winning transport name.
// There is no retry within a candidate.
func FirstSuccess[T any](ctx context.Context, transports []ports.Transport, target string, decode func([]byte) (T, bool)) (T, string, error) {
	var (
		zero     T
		failures []error
	)

	for _, t := range transports {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		body, err := t.Fetch(ctx, target)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}

		value, ok := decode(body)
		if !ok {
			failures = append(failures, fmt.Errorf("%s: %w", t.Name(), ErrUnusable))
			continue
		}

		return value, t.Name(), nil
	}

	failures = append(failures, ErrExhausted)
	return zero, "", errors.Join(failures...)
}

// Chain fetches feed documents through an ordered list of transports.
type Chain struct {
	transports []ports.Transport
	logger     *slog.Logger
}

// NewChain keeps the given order: preferred relay first, direct access last.
func NewChain(log *slog.Logger, transports ...ports.Transport) *Chain {
	return &Chain{transports: transports, logger: log}
}

// Len reports how many candidates the chain holds.
func (c *Chain) Len() int {
	return len(c.transports)
}

// Records fetches target and parses it for source. A body that parses to zero
// records counts as a failed attempt. Exhaustion degrades to an empty result.
func (c *Chain) Records(ctx context.Context, target string, parser ports.FeedParser, source domain.SourceDescriptor) []domain.PaperRecord {
	decode := func(body []byte) ([]domain.PaperRecord, bool) {
		records := parser.Parse(body, source)
		return records, len(records) > 0
	}

	records, via, err := FirstSuccess(ctx, c.transports, target, decode)
	if err != nil {
		c.debug("source exhausted", "source", source.ID, "target", target, "error", err)
		return nil
	}

	c.debug("source fetched", "source", source.ID, "transport", via, "count", len(records))
	return records
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
