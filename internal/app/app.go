package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ArxivReader/internal/config"
	"ArxivReader/internal/feed"
	"ArxivReader/internal/infrastructure/parser"
	"ArxivReader/internal/infrastructure/relay"
	"ArxivReader/internal/infrastructure/scheduler"
	"ArxivReader/internal/infrastructure/storage"
	httptransport "ArxivReader/internal/infrastructure/transport"
	"ArxivReader/internal/logging"
	"ArxivReader/internal/ports"
	"ArxivReader/internal/transport"
	"ArxivReader/internal/usecase"
)

// Options carries collaborators the caller may want to substitute.
type Options struct {
	Observer   usecase.Observer
	HTTPClient *http.Client
	Now        func() time.Time
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	slots     storage.Slots
	bookmarks *usecase.BookmarkStore
	session   *usecase.Session
}

// New builds the application: transport chain, parsers, aggregator,
// bookmark store and session. Bookmarks are loaded before it returns.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	slots, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	chain := transport.NewChain(baseLogger.With("component", "transport"), BuildTransports(cfg.Transport, opts.HTTPClient)...)

	registry := feed.NewRegistry(
		parser.NewSyndicationParser(now),
		parser.NewStructuredQueryParser(now),
	)

	aggregator := usecase.NewAggregator(usecase.AggregatorDeps{
		Sources: cfg.DomainSources(),
		Fetcher: chain,
		Parsers: registry,
		Query:   usecase.QueryOptions{BaseURL: cfg.Query.BaseURL, MaxResults: cfg.Query.MaxResults},
		Now:     now,
		Logger:  baseLogger.With("component", "aggregator"),
	})

	bookmarks := usecase.NewBookmarkStore(slots, cfg.Storage.Slot, now, baseLogger.With("component", "bookmarks"))
	bookmarks.Load(ctx)

	session := usecase.NewSession(usecase.SessionDeps{
		Source:       aggregator,
		Bookmarks:    bookmarks,
		QuickFilters: cfg.DomainQuickFilters(),
		Initial:      cfg.InitialState(),
		Observer:     opts.Observer,
		Logger:       baseLogger.With("component", "session"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		slots:     slots,
		bookmarks: bookmarks,
		session:   session,
	}, nil
}

// BuildTransports lists the fetch candidates: local relay, public relays,
// then direct.
func BuildTransports(cfg config.TransportConfig, client *http.Client) []ports.Transport {
	opts := httptransport.Options{Client: client, Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}

	var out []ports.Transport
	if cfg.LocalRelay.Endpoint != "" {
		name := cfg.LocalRelay.Name
		if name == "" {
			name = "local"
		}
		out = append(out, httptransport.NewRelay(name, cfg.LocalRelay.Endpoint, cfg.LocalRelay.Param, opts))
	}
	for _, r := range cfg.PublicRelays {
		if r.Endpoint == "" {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.Endpoint
		}
		out = append(out, httptransport.NewRelay(name, r.Endpoint, r.Param, opts))
	}
	if cfg.DirectEnabled() {
		out = append(out, httptransport.NewDirect(opts))
	}
	return out
}

// Session exposes the state container for the CLI.
func (a *Application) Session() *usecase.Session {
	return a.session
}

// Bookmarks exposes the bookmark store.
func (a *Application) Bookmarks() *usecase.BookmarkStore {
	return a.bookmarks
}

// Run performs a single refresh.
func (a *Application) Run(ctx context.Context) error {
	return a.session.Refresh(ctx)
}

// Watch refreshes now and then every configured interval, reloading
// bookmarks when the slot changes on disk. It blocks until ctx is done.
func (a *Application) Watch(ctx context.Context, onTick func(time.Time, error)) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.session, onTick, a.logger.With("component", "scheduler"))

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.session.WatchBookmarks(ctx, a.slots)
	}()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching feeds", "interval", a.cfg.Scheduler.Interval.String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	if err := <-watchErr; err != nil {
		a.logger.Warn("bookmark watch ended", "error", err)
	}
	return nil
}

// Close releases storage.
func (a *Application) Close() error {
	if a.slots == nil {
		return nil
	}
	return a.slots.Close()
}

// NewRelayServer builds the relay service from configuration.
func NewRelayServer(cfg config.Config, baseLogger *slog.Logger) *relay.Server {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	return relay.NewServer(relay.ServerOptions{
		Addr:           cfg.Relay.Addr,
		Path:           cfg.Relay.Path,
		RPS:            cfg.Relay.RPS,
		Burst:          cfg.Relay.Burst,
		TrustedProxies: cfg.Relay.TrustedProxies,
		Handler: relay.HandlerOptions{
			Param:        cfg.Relay.Param,
			AllowedHosts: cfg.Relay.AllowedHosts,
			Timeout:      cfg.Relay.Timeout,
		},
	}, baseLogger.With("component", "relay"))
}
