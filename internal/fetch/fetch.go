// Package fetch downloads HTML pages with bounded retries, optional robots.txt
// checks and a conditional-request disk cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/cache"
	"github.com/hyperifyio/gocetd/internal/robots"
)

const (
	// DefaultMaxBodyBytes caps page bodies when Client.MaxBodyBytes is zero.
	DefaultMaxBodyBytes = 16 << 20
	// DefaultMaxCrawlDelay caps robots.txt Crawl-delay values when
	// Client.MaxCrawlDelay is zero.
	DefaultMaxCrawlDelay = 10 * time.Second
)

// Page is a fetched document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	Status      int
	// FromCache is set when Body came from the disk cache, either because
	// the entry was fresh or because the server answered 304.
	FromCache bool

	etag, lastModified string
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// ErrUnsupportedContentType is returned for responses that are not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for HTTP GET bodies and headers.
	Cache *cache.HTTPCache
	// CacheMaxAge serves cached entries younger than this without any request.
	CacheMaxAge time.Duration
	// If true, bypass cache entirely and fetch fresh (no conditional headers),
	// but still save the latest response to cache.
	BypassCache bool
	// Robots, when set, is consulted before every fetch. Its Crawl-delay
	// spaces network requests to the same host.
	Robots *robots.Manager
	// MaxCrawlDelay caps the honored Crawl-delay. Zero means DefaultMaxCrawlDelay.
	MaxCrawlDelay time.Duration

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int
	// MaxBodyBytes truncates larger bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once

	hostMu   sync.Mutex
	nextSlot map[string]time.Time
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	rawURL, err := CanonicalURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.Robots != nil {
		ok, err := c.Robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots.txt: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", robots.ErrDisallowed, rawURL)
		}
	}

	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			if meta.Fresh(c.CacheMaxAge, time.Now()) {
				if body, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
					log.Debug().Str("url", rawURL).Msg("serving fresh cache entry")
					return &Page{URL: rawURL, ContentType: meta.ContentType, Body: body, Status: http.StatusOK, FromCache: true}, nil
				}
			}
			if meta.Validators() {
				etag, lastMod = meta.ETag, meta.LastModified
			}
		}
	}

	if err := c.waitCrawlDelay(ctx, u); err != nil {
		return nil, err
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return c.settle(ctx, page)
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		lastErr = err
		backoff := time.Duration(i+1) * 200 * time.Millisecond
		log.Debug().Err(err).Str("url", rawURL).Dur("backoff", backoff).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// waitCrawlDelay blocks until the host's next request slot. Slots are
// reserved under the lock, so concurrent callers queue up one delay apart.
func (c *Client) waitCrawlDelay(ctx context.Context, u *url.URL) error {
	if c.Robots == nil {
		return nil
	}
	delay, err := c.Robots.CrawlDelay(ctx, u.String())
	if err != nil || delay <= 0 {
		return nil
	}
	limit := c.MaxCrawlDelay
	if limit <= 0 {
		limit = DefaultMaxCrawlDelay
	}
	delay = min(delay, limit)

	c.hostMu.Lock()
	if c.nextSlot == nil {
		c.nextSlot = make(map[string]time.Time)
	}
	now := time.Now()
	start := c.nextSlot[u.Host]
	if start.Before(now) {
		start = now
	}
	c.nextSlot[u.Host] = start.Add(delay)
	c.hostMu.Unlock()

	wait := start.Sub(now)
	if wait <= 0 {
		return nil
	}
	log.Debug().Str("host", u.Host).Dur("wait", wait).Msg("honoring crawl delay")
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// settle stores fresh responses and swaps in the cached body on 304.
func (c *Client) settle(ctx context.Context, page *Page) (*Page, error) {
	if c.Cache == nil {
		return page, nil
	}
	if page.Status == http.StatusNotModified {
		cached, err := c.Cache.LoadBody(ctx, page.URL)
		if err != nil {
			return nil, fmt.Errorf("load cached body: %w", err)
		}
		if page.ContentType == "" {
			if meta, err := c.Cache.LoadMeta(ctx, page.URL); err == nil {
				page.ContentType = meta.ContentType
			}
		}
		page.Body = cached
		page.FromCache = true
		return page, nil
	}
	entry := cache.HTTPEntry{
		URL:          page.URL,
		ContentType:  page.ContentType,
		ETag:         page.etag,
		LastModified: page.lastModified,
	}
	if err := c.Cache.Save(ctx, entry, page.Body); err != nil {
		log.Warn().Err(err).Str("url", page.URL).Msg("cache save failed")
	}
	return page, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (*Page, error) {
	// Concurrency gate per client instance
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &Page{
		URL:          rawURL,
		ContentType:  resp.Header.Get("Content-Type"),
		Status:       resp.StatusCode,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	switch {
	case resp.StatusCode == http.StatusNotModified:
		// 304: no body expected
		return page, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(page.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, page.ContentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	page.Body = b
	return page, nil
}

// isTransient treats HTTP 5xx and deadline expiry as worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// an absent header is sniffed later by the charset decoder
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
		// should not happen, but avoid blocking
	}
}
