package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ArxivReader/internal/ports"
)

const (
	defaultUserAgent = "ArxivReader/1.0"
	defaultParam     = "url"
	maxBodyBytes     = 16 << 20
)

// HTTPTransport fetches a target either directly or through a relay that takes
// the target as a single query parameter.
type HTTPTransport struct {
	name      string
	endpoint  string
	param     string
	userAgent string
	timeout   time.Duration
	client    *http.Client
}

var _ ports.Transport = (*HTTPTransport)(nil)

// Options tunes an HTTPTransport. Zero values pick defaults.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// NewRelay builds a relay transport; param defaults to "url".
func NewRelay(name, endpoint, param string, opts Options) *HTTPTransport {
	if param == "" {
		param = defaultParam
	}
	return newHTTPTransport(name, endpoint, param, opts)
}

// NewDirect builds a transport that requests the target as-is.
func NewDirect(opts Options) *HTTPTransport {
	return newHTTPTransport("direct", "", "", opts)
}

func newHTTPTransport(name, endpoint, param string, opts Options) *HTTPTransport {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPTransport{
		name:      name,
		endpoint:  endpoint,
		param:     param,
		userAgent: ua,
		timeout:   opts.Timeout,
		client:    client,
	}
}

// Name identifies the candidate in logs.
func (t *HTTPTransport) Name() string {
	return t.name
}

// RequestURL returns the URL actually requested for target.
func (t *HTTPTransport) RequestURL(target string) (string, error) {
	if t.endpoint == "" {
		return target, nil
	}

	parsed, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid relay endpoint %s: %w", t.endpoint, err)
	}

	query := parsed.Query()
	query.Set(t.param, target)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Fetch performs a single GET. Non-2xx statuses and empty bodies are errors.
func (t *HTTPTransport) Fetch(ctx context.Context, target string) ([]byte, error) {
	reqURL, err := t.RequestURL(target)
	if err != nil {
		return nil, err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	return body, nil
}
