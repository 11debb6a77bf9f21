package relay

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func proxyRequest(method, target string) *http.Request {
	u := "/proxy"
	if target != "" {
		u += "?url=" + url.QueryEscape(target)
	}
	return httptest.NewRequest(method, u, nil)
}

func TestHandlerForwardsAllowedTarget(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/cs.AI" {
			t.Errorf("unexpected upstream path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer upstream.Close()

	h := NewHandler(HandlerOptions{AllowedHosts: []string{"127.0.0.1"}}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, proxyRequest(http.MethodGet, upstream.URL+"/rss/cs.AI"))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected upstream status, got %d", rec.Code)
	}
	if rec.Body.String() != "<rss/>" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/rss+xml" {
		t.Fatalf("content type not forwarded: %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestHandlerRejections(t *testing.T) {
	t.Parallel()

	h := NewHandler(HandlerOptions{}, nil)
	cases := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing target", http.MethodGet, "", http.StatusBadRequest},
		{"relative target", http.MethodGet, "/abs/2401.00001", http.StatusBadRequest},
		{"bad scheme", http.MethodGet, "file:///etc/passwd", http.StatusBadRequest},
		{"unparseable", http.MethodGet, "http://[::1", http.StatusBadRequest},
		{"foreign host", http.MethodGet, "https://example.com/feed", http.StatusForbidden},
		{"lookalike host", http.MethodGet, "https://evilarxiv.org/feed", http.StatusForbidden},
		{"post", http.MethodPost, "https://arxiv.org/", http.StatusMethodNotAllowed},
		{"preflight", http.MethodOptions, "", http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, proxyRequest(tc.method, tc.target))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			if rec.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Fatalf("missing CORS headers on %d", rec.Code)
			}
		})
	}
}

func TestHandlerRedirects(t *testing.T) {
	t.Parallel()

	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("foreign-body"))
	}))
	defer foreign.Close()
	_, foreignPort, err := net.SplitHostPort(foreign.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/moved":
			http.Redirect(w, r, "/rss/cs.AI", http.StatusFound)
		case "/away":
			http.Redirect(w, r, "http://localhost:"+foreignPort+"/feed", http.StatusFound)
		default:
			_, _ = w.Write([]byte("<rss/>"))
		}
	}))
	defer upstream.Close()

	h := NewHandler(HandlerOptions{AllowedHosts: []string{"127.0.0.1"}, Timeout: 2 * time.Second}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, proxyRequest(http.MethodGet, upstream.URL+"/moved"))
	if rec.Code != http.StatusOK || rec.Body.String() != "<rss/>" {
		t.Fatalf("same-host redirect: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, proxyRequest(http.MethodGet, upstream.URL+"/away"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for redirect off the allow-list, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "foreign-body") {
		t.Fatalf("foreign body leaked: %q", rec.Body.String())
	}
}

func TestHandlerUpstreamFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	h := NewHandler(HandlerOptions{AllowedHosts: []string{"127.0.0.1"}, Timeout: time.Second}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, proxyRequest(http.MethodGet, "http://"+addr+"/feed"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHostAllowed(t *testing.T) {
	t.Parallel()

	allowed := []string{"arxiv.org"}
	cases := map[string]bool{
		"arxiv.org":        true,
		"export.arxiv.org": true,
		"RSS.ARXIV.ORG.":   true,
		"arxiv.org.evil":   false,
		"notarxiv.org":     false,
		"":                 false,
	}
	for host, want := range cases {
		if got := HostAllowed(host, allowed); got != want {
			t.Fatalf("HostAllowed(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestRateLimitPerClient(t *testing.T) {
	t.Parallel()

	s := NewServer(ServerOptions{RPS: 0.001, Burst: 2}, nil)
	h := s.Handler()

	send := func(ip, forwarded string) int {
		req := proxyRequest(http.MethodOptions, "")
		req.RemoteAddr = ip + ":40000"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.7", ""); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := send("203.0.113.7", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("203.0.113.7", "192.0.2.99"); code != http.StatusTooManyRequests {
		t.Fatalf("forwarded header from untrusted peer reset the bucket: %d", code)
	}
	if code := send("198.51.100.2", ""); code != http.StatusNoContent {
		t.Fatalf("other client throttled: %d", code)
	}
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	t.Parallel()

	s := NewServer(ServerOptions{RPS: 0.001, Burst: 1, TrustedProxies: []string{"10.0.0.1"}}, nil)
	h := s.Handler()

	send := func(client string) int {
		req := proxyRequest(http.MethodOptions, "")
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.7"); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := send("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("198.51.100.2"); code != http.StatusNoContent {
		t.Fatalf("distinct forwarded client throttled: %d", code)
	}
}

func TestLimiterSweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 1, nil)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(10 * time.Minute)
	l.allow("b")

	if removed := l.sweep(); removed != 1 {
		t.Fatalf("expected one idle client removed, got %d", removed)
	}
	if _, ok := l.clients["b"]; !ok {
		t.Fatalf("active client swept")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	trusted := map[string]struct{}{"10.0.0.1": {}}
	cases := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"remote only", "192.0.2.1:5555", "", "192.0.2.1"},
		{"untrusted forwarded", "192.0.2.1:5555", "203.0.113.7", "192.0.2.1"},
		{"trusted forwarded", "10.0.0.1:5555", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"trusted without header", "10.0.0.1:5555", "", "10.0.0.1"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := clientIP(req, trusted); got != tc.want {
			t.Fatalf("%s: clientIP = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(ServerOptions{Addr: ln.Addr().String(), RPS: 10, Burst: 10}, nil)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Fatalf("unexpected healthz response: %d %q", resp.StatusCode, body)
	}
	client.CloseIdleConnections()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
}
