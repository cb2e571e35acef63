package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/gocetd/internal/cache"
)

// robotsServer serves handler on /robots.txt and counts the hits there.
func robotsServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestManager(client *http.Client, c *cache.HTTPCache) *Manager {
	return &Manager{
		HTTPClient:        client,
		Cache:             c,
		UserAgent:         "gocetd-test/1.0",
		EntryExpiry:       time.Minute,
		AllowPrivateHosts: true,
	}
}

func TestManager_StatusPolicy(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		allowed bool
	}{
		{"not found allows", http.StatusNotFound, true},
		{"gone allows", http.StatusGone, true},
		{"unavailable blocks", http.StatusServiceUnavailable, false},
		{"unauthorized blocks", http.StatusUnauthorized, false},
		{"forbidden blocks", http.StatusForbidden, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, hits := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			m := newTestManager(srv.Client(), nil)
			u := srv.URL + "/robots.txt"

			rules, src, err := m.Get(context.Background(), u)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if src != SourceNetwork {
				t.Fatalf("source = %v, want network", src)
			}
			if got := rules.IsAllowed("gocetd", "/article"); got != tc.allowed {
				t.Fatalf("allowed = %v, want %v", got, tc.allowed)
			}

			// The outcome is remembered until expiry.
			if _, src, _ := m.Get(context.Background(), u); src != SourceMemory {
				t.Fatalf("second source = %v, want memory", src)
			}
			if n := atomic.LoadInt32(hits); n != 1 {
				t.Fatalf("hits = %d, want 1", n)
			}
		})
	}
}

func TestManager_TimeoutBlocksHost(t *testing.T) {
	t.Parallel()
	srv, hits := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client := *srv.Client()
	client.Timeout = 50 * time.Millisecond
	m := newTestManager(&client, nil)

	rules, _, err := m.Get(context.Background(), srv.URL+"/robots.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rules.DisallowAll {
		t.Fatalf("timeout should block the host")
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}
}

func TestManager_Revalidation(t *testing.T) {
	t.Parallel()
	lastMod := time.Now().UTC().Format(http.TimeFormat)
	cases := []struct {
		name     string
		validate func(r *http.Request) bool
		header   string
		value    string
	}{
		{
			name:     "etag",
			validate: func(r *http.Request) bool { return r.Header.Get("If-None-Match") == `W/"r1"` },
			header:   "ETag",
			value:    `W/"r1"`,
		},
		{
			name:     "last-modified",
			validate: func(r *http.Request) bool { return r.Header.Get("If-Modified-Since") == lastMod },
			header:   "Last-Modified",
			value:    lastMod,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, hits := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(tc.header, tc.value)
				if tc.validate(r) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /drafts\n"))
			})
			m := newTestManager(srv.Client(), &cache.HTTPCache{Dir: t.TempDir()})
			u := srv.URL + "/robots.txt"

			if _, src, err := m.Get(context.Background(), u); err != nil || src != SourceNetwork {
				t.Fatalf("first get: src=%v err=%v", src, err)
			}
			m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
			rules, src, err := m.Get(context.Background(), u)
			if err != nil {
				t.Fatalf("revalidate: %v", err)
			}
			if src != SourceCache304 {
				t.Fatalf("source = %v, want cache-304", src)
			}
			if n := atomic.LoadInt32(hits); n != 2 {
				t.Fatalf("hits = %d, want 2", n)
			}
			if rules.IsAllowed("gocetd", "/drafts/1") {
				t.Fatalf("cached rules lost after 304")
			}
		})
	}
}

func TestRules_IsAllowed(t *testing.T) {
	t.Parallel()
	const txt = `# news site
User-agent: gocetd
Disallow: /private
Allow: /private/press
Disallow: /*.pdf$
Allow: /reports/*.pdf$

User-agent: *
Disallow: /*?session=
`
	rules := Parse(txt)
	cases := []struct {
		agent string
		path  string
		want  bool
	}{
		{"gocetd", "/news/today", true},
		{"gocetd", "/private/notes", false},
		{"gocetd", "/private/press/release", true},
		{"gocetd", "/files/a.pdf", false},
		{"gocetd", "/files/a.pdf?x=1", true},
		{"gocetd", "/reports/q3.pdf", true},
		{"GoCETD/2.0", "/private/notes", false},
		{"other", "/private/notes", true},
		{"other", "/index.html?session=9", false},
	}
	for _, tc := range cases {
		if got := rules.IsAllowed(tc.agent, tc.path); got != tc.want {
			t.Fatalf("IsAllowed(%q, %q) = %v, want %v", tc.agent, tc.path, got, tc.want)
		}
	}
}

func TestRules_CrawlDelayFor(t *testing.T) {
	t.Parallel()
	rules := Parse("User-agent: gocetd\nCrawl-delay: 3\n\nUser-agent: *\nCrawl-delay: 10\n")
	if d := rules.CrawlDelayFor("gocetd"); d == nil || *d != 3*time.Second {
		t.Fatalf("gocetd delay = %v, want 3s", d)
	}
	if d := rules.CrawlDelayFor("bot"); d == nil || *d != 10*time.Second {
		t.Fatalf("wildcard delay = %v, want 10s", d)
	}
	if d := Parse("User-agent: *\nDisallow:\n").CrawlDelayFor("bot"); d != nil {
		t.Fatalf("delay = %v, want nil", d)
	}
}

func TestManager_Allowed(t *testing.T) {
	t.Parallel()
	srv, _ := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private # members only\n"))
	})
	m := newTestManager(srv.Client(), nil)

	ok, err := m.Allowed(context.Background(), srv.URL+"/articles/1?x=y")
	if err != nil || !ok {
		t.Fatalf("public page: ok=%v err=%v", ok, err)
	}
	ok, err = m.Allowed(context.Background(), srv.URL+"/private/page")
	if err != nil || ok {
		t.Fatalf("private page: ok=%v err=%v", ok, err)
	}
}

func TestManager_CrawlDelay(t *testing.T) {
	t.Parallel()
	srv, hits := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: gocetd\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /tmp\n"))
	})
	m := newTestManager(srv.Client(), nil)
	m.UserAgent = "gocetd/1.0"
	d, err := m.CrawlDelay(context.Background(), srv.URL+"/news/1")
	if err != nil || d != 2*time.Second {
		t.Fatalf("delay=%v err=%v, want 2s", d, err)
	}

	m.UserAgent = "otherbot"
	m.mem = nil
	if d, err := m.CrawlDelay(context.Background(), srv.URL+"/news/1"); err != nil || d != 0 {
		t.Fatalf("delay=%v err=%v, want 0", d, err)
	}
	if n := atomic.LoadInt32(hits); n != 2 {
		t.Fatalf("hits=%d, want 2", n)
	}
}

func TestManager_RejectsPrivateHosts(t *testing.T) {
	t.Parallel()
	m := &Manager{}
	for _, u := range []string{"http://127.0.0.1/robots.txt", "http://localhost/robots.txt", "ftp://example.com/robots.txt"} {
		if _, _, err := m.Get(context.Background(), u); err == nil {
			t.Fatalf("Get(%q): expected error", u)
		}
	}
}
