package feed

import (
	"errors"
	"fmt"

	"ArxivReader/internal/ports"
)

// Format names used by the aggregator to pick a parser per mode.
const (
	FormatSyndication     = "syndication"
	FormatStructuredQuery = "structured-query"
)

// ErrUnknownParser is returned by Resolve for unregistered formats.
var ErrUnknownParser = errors.New("parser is not registered")

// Registry keeps a mapping from format names to parser implementations.
type Registry struct {
	parsers map[string]ports.FeedParser
}

// NewRegistry builds a registry pre-filled with the given parsers.
func NewRegistry(parsers ...ports.FeedParser) *Registry {
	r := &Registry{parsers: map[string]ports.FeedParser{}}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a parser implementation.
func (r *Registry) Register(parser ports.FeedParser) {
	if r.parsers == nil {
		r.parsers = map[string]ports.FeedParser{}
	}
	r.parsers[parser.Name()] = parser
}

// Resolve returns a parser by format name.
func (r *Registry) Resolve(name string) (ports.FeedParser, error) {
	if r != nil {
		if parser, ok := r.parsers[name]; ok {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownParser)
}
