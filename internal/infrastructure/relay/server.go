package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"ArxivReader/pkg/logger"
)

// ServerOptions configures the listening relay service.
type ServerOptions struct {
	Addr    string
	Path    string
	RPS     float64
	Burst   int
	Handler HandlerOptions
	// TrustedProxies lists peer addresses whose X-Forwarded-For is honoured.
	TrustedProxies []string
}

// Server exposes the relay handler over HTTP with per-client rate limiting.
type Server struct {
	srv     *http.Server
	limiter *ipLimiter
	logger  *slog.Logger
}

// NewServer mounts the relay at opts.Path (default /proxy) plus /healthz.
func NewServer(opts ServerOptions, log *slog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = "localhost:8787"
	}
	if opts.Path == "" {
		opts.Path = "/proxy"
	}

	s := &Server{logger: log}

	var relay http.Handler = NewHandler(opts.Handler, log)
	if opts.RPS > 0 {
		s.limiter = newIPLimiter(opts.RPS, opts.Burst, opts.TrustedProxies)
		relay = s.limiter.middleware(relay)
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, relay)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.New(log, "relay", slog.LevelWarn),
	}
	return s
}

// Handler returns the routed handler, rate limiting included.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("relay listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.limiter != nil {
		go s.limiter.run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	if s.logger != nil {
		s.logger.Info("relay listening", "addr", ln.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	<-errCh
	return nil
}
