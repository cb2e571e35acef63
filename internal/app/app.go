package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/cache"
	"github.com/hyperifyio/gocetd/internal/extract"
	"github.com/hyperifyio/gocetd/internal/fetch"
	"github.com/hyperifyio/gocetd/internal/robots"
	"github.com/hyperifyio/gocetd/internal/textmeasure"
)

// App runs one extraction: read or fetch the input, extract, write output.
type App struct {
	cfg       Config
	format    string
	client    *fetch.Client
	extractor *extract.DensityExtractor
	httpCache *cache.HTTPCache

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	now func() time.Time
}

// source describes where the input came from.
type source struct {
	Name        string
	ContentType string
	Body        []byte
	FromCache   bool
}

// New prepares an App for cfg. Cache invalidation controls run here so a
// failing run still leaves the cache in the requested state.
func New(ctx context.Context, cfg Config) (*App, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:    cfg,
		format: format,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		now:    time.Now,
	}

	if cfg.URL != "" && cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	if cfg.URL != "" {
		httpClient := newHTTPClient(cfg)
		ua := cfg.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		a.client = &fetch.Client{
			HTTPClient:        httpClient,
			UserAgent:         ua,
			MaxAttempts:       cfg.MaxAttempts,
			PerRequestTimeout: cfg.Timeout,
			Cache:             a.httpCache,
			CacheMaxAge:       cfg.CacheMaxAge,
			MaxBodyBytes:      cfg.MaxBodyBytes,
		}
		if a.client.MaxAttempts == 0 {
			a.client.MaxAttempts = 3
		}
		if cfg.Robots {
			a.client.Robots = &robots.Manager{
				HTTPClient:  httpClient,
				Cache:       a.httpCache,
				UserAgent:   ua,
				EntryExpiry: time.Hour,
			}
		}
	}

	opts, err := ExtractOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.Markdown = format == FormatMarkdown
	opts.HTML = format == FormatHTML
	if cfg.Dump {
		opts.Dump = writerFunc(func(p []byte) (int, error) { return a.Stderr.Write(p) })
	}
	a.extractor = extract.New(opts)
	return a, nil
}

// ExtractOptions maps the extraction settings of cfg. Rendering flags are
// left to the caller.
func ExtractOptions(cfg Config) (extract.Options, error) {
	scorer, err := ScorerByName(cfg.Scorer)
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		Root:        cfg.Root,
		LinkTags:    cfg.LinkTags,
		Scorer:      scorer,
		Separator:   cfg.Separator,
		KeepLinks:   cfg.KeepLinks,
		BaseURL:     cfg.URL,
		DropConsent: cfg.DropConsent,
	}, nil
}

// Close enforces the cache size limits after the run.
func (a *App) Close() {
	if a.httpCache == nil || (a.cfg.CacheMaxBytes <= 0 && a.cfg.CacheMaxCount <= 0) {
		return
	}
	n, err := cache.EnforceHTTPCacheLimits(a.cfg.CacheDir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxCount)
	if err != nil {
		log.Warn().Err(err).Msg("cache limit enforcement failed")
		return
	}
	if n > 0 {
		log.Debug().Int("evicted", n).Msg("evicted cache entries")
	}
}

// Run executes the extraction and writes the rendered result. Errors wrap
// the cetd sentinels; see ExitCode.
func (a *App) Run(ctx context.Context) error {
	src, err := a.readInput(ctx)
	if err != nil {
		return err
	}

	res, err := a.extractor.Extract(src.Body, src.ContentType)
	if err != nil {
		return fmt.Errorf("%s: %w", src.Name, err)
	}
	if a.cfg.MaxChars > 0 {
		if t := textmeasure.Truncate(res.Text, a.cfg.MaxChars); t != res.Text {
			log.Debug().Int("max_chars", a.cfg.MaxChars).Msg("truncated extracted text")
			res.Text = t
		}
	}

	body, err := render(res, a.format, src.Name)
	if err != nil {
		return err
	}
	if a.cfg.Footer {
		body = appendSourceFooter(body, a.format, footerInfo{
			Source:    src.Name,
			Boundary:  res.Boundary,
			Score:     res.Score,
			Scorer:    scorerLabel(a.cfg.Scorer),
			FromCache: src.FromCache,
		})
	}

	if err := a.writeOutput(body); err != nil {
		return err
	}
	if a.cfg.Manifest {
		m := buildManifest(src, res, a.format, scorerLabel(a.cfg.Scorer), body, a.now())
		if err := writeManifest(deriveManifestSidecarPath(a.cfg.OutputPath), m); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}

	log.Info().
		Str("source", src.Name).
		Str("boundary", res.Boundary).
		Float64("score", res.Score).
		Int("chars", res.Chars).
		Int("page_chars", res.PageChars).
		Bool("from_cache", src.FromCache).
		Msg("extraction complete")
	return nil
}

func (a *App) readInput(ctx context.Context) (source, error) {
	switch {
	case a.cfg.URL != "":
		page, err := a.client.Get(ctx, a.cfg.URL)
		if err != nil {
			return source{}, fmt.Errorf("fetch %s: %w", a.cfg.URL, err)
		}
		return source{Name: a.cfg.URL, ContentType: page.ContentType, Body: page.Body, FromCache: page.FromCache}, nil
	case a.cfg.FilePath == "-":
		b, err := io.ReadAll(a.Stdin)
		if err != nil {
			return source{}, fmt.Errorf("read stdin: %w", err)
		}
		return source{Name: "stdin", Body: b}, nil
	case a.cfg.FilePath != "":
		b, err := os.ReadFile(a.cfg.FilePath)
		if err != nil {
			return source{}, fmt.Errorf("read input: %w", err)
		}
		return source{Name: a.cfg.FilePath, Body: b}, nil
	default:
		return source{}, fmt.Errorf("%w: no input", ErrConfig)
	}
}

func (a *App) writeOutput(body string) error {
	if strings.TrimSpace(a.cfg.OutputPath) == "" {
		_, err := io.WriteString(a.Stdout, body)
		return err
	}
	if dir := filepath.Dir(a.cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(a.cfg.OutputPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func scorerLabel(name string) string {
	if s := strings.ToLower(strings.TrimSpace(name)); s != "" {
		return s
	}
	return ScorerDefault
}
