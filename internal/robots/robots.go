// Package robots fetches, caches and evaluates robots.txt files.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/cache"
)

// Source tells where a rule set came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceMemory
	SourceCache304
)

func (s Source) String() string {
	switch s {
	case SourceMemory:
		return "memory"
	case SourceCache304:
		return "cache-304"
	default:
		return "network"
	}
}

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
	// DisallowAll is set when robots.txt could not be retrieved for a reason
	// that must be treated as a temporary block (5xx, 401, 403, timeouts).
	DisallowAll bool
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// Manager retrieves robots.txt per host and keeps the result in memory until
// EntryExpiry, revalidating against the optional disk cache afterwards.
type Manager struct {
	HTTPClient        *http.Client
	Cache             *cache.HTTPCache
	UserAgent         string
	EntryExpiry       time.Duration
	AllowPrivateHosts bool

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// ErrDisallowed is returned by Allowed callers that refuse to fetch a page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Allowed fetches the robots.txt of pageURL's host and reports whether the
// manager's user agent may fetch pageURL.
func (m *Manager) Allowed(ctx context.Context, pageURL string) (bool, error) {
	rules, u, err := m.rulesFor(ctx, pageURL)
	if err != nil {
		return false, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.IsAllowed(m.UserAgent, path), nil
}

// CrawlDelay returns the Crawl-delay the host of pageURL asks of the
// manager's user agent, or 0 when it sets none.
func (m *Manager) CrawlDelay(ctx context.Context, pageURL string) (time.Duration, error) {
	rules, _, err := m.rulesFor(ctx, pageURL)
	if err != nil {
		return 0, err
	}
	if d := rules.CrawlDelayFor(m.UserAgent); d != nil {
		return *d, nil
	}
	return 0, nil
}

func (m *Manager) rulesFor(ctx context.Context, pageURL string) (Rules, *url.URL, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Rules{}, nil, fmt.Errorf("parse url: %w", err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, _, err := m.Get(ctx, robotsURL)
	if err != nil {
		return Rules{}, nil, err
	}
	return rules, u, nil
}

// Get returns the rules at robotsURL. Missing files (4xx other than 401/403)
// allow everything; server errors, auth failures and network errors block
// everything until the entry expires.
func (m *Manager) Get(ctx context.Context, robotsURL string) (Rules, Source, error) {
	m.mu.Lock()
	if m.now == nil {
		m.now = time.Now
	}
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	ent, ok := m.mem[robotsURL]
	now := m.now()
	m.mu.Unlock()
	if ok && now.Before(ent.expiry) {
		return ent.rules, SourceMemory, nil
	}

	u, err := url.Parse(robotsURL)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Rules{}, SourceNetwork, fmt.Errorf("unsupported url scheme: %q", robotsURL)
	}
	if host := u.Hostname(); !m.AllowPrivateHosts && isLocalOrPrivateHost(host) {
		return Rules{}, SourceNetwork, fmt.Errorf("private host not allowed: %s", host)
	}

	var etag, lastMod string
	if m.Cache != nil {
		if meta, err := m.Cache.LoadMeta(ctx, robotsURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unreachable, disallowing host")
		return m.store(robotsURL, Rules{DisallowAll: true}), SourceNetwork, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && m.Cache != nil:
		body, err := m.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return Rules{}, SourceCache304, fmt.Errorf("load cached robots: %w", err)
		}
		return m.store(robotsURL, Parse(string(body))), SourceCache304, nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return m.store(robotsURL, Rules{DisallowAll: true}), SourceNetwork, nil
	case resp.StatusCode >= 400:
		return m.store(robotsURL, Rules{}), SourceNetwork, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, SourceNetwork, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("read robots: %w", err)
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, cache.HTTPEntry{
			URL:          robotsURL,
			ContentType:  "text/plain",
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, data)
	}
	return m.store(robotsURL, Parse(string(data))), SourceNetwork, nil
}

func (m *Manager) store(key string, rules Rules) Rules {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[key] = memEntry{rules: rules, expiry: m.now().Add(exp)}
	m.mu.Unlock()
	return rules
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 && current.CrawlDelay == nil {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && (len(current.Allow) > 0 || len(current.Disallow) > 0 || current.CrawlDelay != nil) {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		case "crawl-delay", "crawldelay":
			if d, err := time.ParseDuration(val + "s"); err == nil && val != "" {
				current.CrawlDelay = &d
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed evaluates whether path (which may include a query string) may be
// fetched by userAgent. The most specific matching group applies; within it
// the longest matching pattern wins and Allow beats Disallow on ties. No
// match means allowed.
func (r Rules) IsAllowed(userAgent string, path string) bool {
	if r.DisallowAll {
		return false
	}
	idx := r.selectGroupIndex(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.Groups[idx]

	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			// an empty pattern places no restriction
			if p == "" || !patternMatches(p, path) {
				continue
			}
			score := patternSpecificity(p)
			if score > bestScore || (score == bestScore && isAllow && !bestAllow) {
				bestScore = score
				bestAllow = isAllow
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)
	return bestScore == -1 || bestAllow
}

// CrawlDelayFor returns the crawl delay of the matching group, or nil.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	idx := r.selectGroupIndex(userAgent)
	if idx < 0 {
		return nil
	}
	return r.Groups[idx].CrawlDelay
}

// selectGroupIndex picks the group whose agent token is the longest substring
// of userAgent. '*' matches with the lowest score; ties keep the first group.
func (r Rules) selectGroupIndex(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.TrimSpace(a)
			score := -1
			switch {
			case token == "":
			case token == "*":
				score = 0
			case strings.Contains(ua, token):
				score = len(token)
			}
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
	}
	return bestIdx
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

// patternMatches supports '*' for any sequence and a trailing '$' anchor.
// Matching is anchored at the start of the path.
func patternMatches(pattern, path string) bool {
	patternMu.Lock()
	re, ok := patternCache[pattern]
	if !ok {
		anchorEnd := strings.HasSuffix(pattern, "$")
		parts := strings.Split(strings.TrimSuffix(pattern, "$"), "*")
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		expr := "^" + strings.Join(parts, ".*")
		if anchorEnd {
			expr += "$"
		}
		re = regexp.MustCompile(expr)
		patternCache[pattern] = re
	}
	patternMu.Unlock()
	return re.MatchString(path)
}

// patternSpecificity is the pattern length without wildcards and anchor.
func patternSpecificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isLocalOrPrivateHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || h == "localhost.localdomain" || h == "::1" || h == "[::1]" {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
	}
	return false
}
