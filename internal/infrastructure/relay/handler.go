package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultParam     = "url"
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "ArxivReader-Relay/1.0"
	maxUpstreamBody  = 16 << 20
	maxRedirects     = 10
)

var errRedirectDenied = errors.New("redirect target not allowed")

// DefaultAllowedHosts limits the relay to arXiv and its subdomains.
var DefaultAllowedHosts = []string{"arxiv.org"}

// HandlerOptions configures the forwarding handler.
type HandlerOptions struct {
	Param        string
	AllowedHosts []string
	Timeout      time.Duration
	UserAgent    string
	Client       *http.Client
}

// Handler forwards GET requests for allow-listed targets and adds permissive
// cross-origin headers to every response.
type Handler struct {
	param     string
	allowed   []string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

var _ http.Handler = (*Handler)(nil)

// NewHandler builds the forwarding handler.
func NewHandler(opts HandlerOptions, log *slog.Logger) *Handler {
	h := &Handler{
		param:     opts.Param,
		allowed:   normalizeHosts(opts.AllowedHosts),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		logger:    log,
	}
	if h.param == "" {
		h.param = defaultParam
	}
	if len(h.allowed) == 0 {
		h.allowed = DefaultAllowedHosts
	}
	if h.timeout <= 0 {
		h.timeout = defaultTimeout
	}
	if h.userAgent == "" {
		h.userAgent = defaultUserAgent
	}
	client := &http.Client{}
	if opts.Client != nil {
		copied := *opts.Client
		client = &copied
	}
	client.CheckRedirect = h.checkRedirect
	h.client = client
	return h
}

// checkRedirect re-applies the allow-list on every hop.
func (h *Handler) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if !HostAllowed(req.URL.Hostname(), h.allowed) {
		return fmt.Errorf("%w: %s", errRedirectDenied, req.URL.Hostname())
	}
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := h.target(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !HostAllowed(target.Hostname(), h.allowed) {
		h.debug("relay rejected host", "host", target.Hostname())
		http.Error(w, "host not allowed", http.StatusForbidden)
		return
	}

	h.forward(r.Context(), w, target)
}

func (h *Handler) target(r *http.Request) (*url.URL, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(h.param))
	if raw == "" {
		return nil, fmt.Errorf("missing %s parameter", h.param)
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("invalid target url")
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", target.Scheme)
	}
	if target.Hostname() == "" {
		return nil, errors.New("target url has no host")
	}
	return target, nil
}

func (h *Handler) forward(parent context.Context, w http.ResponseWriter, target *url.URL) {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "invalid target url", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := h.client.Do(req)
	if errors.Is(err, errRedirectDenied) {
		h.debug("relay rejected redirect", "target", target.String(), "error", err)
		http.Error(w, "redirect host not allowed", http.StatusForbidden)
		return
	}
	if err != nil {
		h.warn("relay upstream failed", "target", target.String(), "error", err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, io.LimitReader(resp.Body, maxUpstreamBody)); err != nil {
		h.debug("relay copy interrupted", "target", target.String(), "error", err)
	}
}

// HostAllowed reports whether host equals an allowed host or is a subdomain
// of one.
func HostAllowed(host string, allowed []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, a := range allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Handler) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
