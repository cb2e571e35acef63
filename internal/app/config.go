package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/gocetd/internal/cetd"
)

// Output formats accepted by Config.Format.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// Scorer names accepted by Config.Scorer.
const (
	ScorerDefault = "default"
	ScorerPaper   = "paper"
)

// Defaults shared by flag definitions and ApplyFileConfig.
const (
	DefaultUserAgent = "gocetd/1.0 (+https://github.com/hyperifyio/gocetd)"
	DefaultCacheDir  = ".gocetd-cache"
	DefaultRoot      = "body"
	DefaultTimeout   = 30 * time.Second
	DefaultAddr      = ":8080"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Input: exactly one of URL and FilePath. FilePath "-" reads stdin.
	URL      string
	FilePath string
	// OutputPath is stdout when empty.
	OutputPath string
	Format     string
	ConfigPath string

	// Extraction
	Separator   string
	KeepLinks   bool
	Scorer      string
	LinkTags    []string
	Root        string
	DropConsent bool
	// MaxChars truncates the extracted text; zero keeps everything.
	MaxChars int

	// Output extras
	Footer   bool
	Manifest bool

	// Fetch
	UserAgent    string
	Timeout      time.Duration
	MaxAttempts  int
	MaxBodyBytes int64
	Robots       bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxCount    int

	// Server
	Addr string

	// Behavior
	Dump    bool
	Verbose bool
}

// ParseFormat normalizes an output format name. Empty means text.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText, "txt":
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, html or json)", ErrConfig, s)
	}
}

// ScorerByName maps a scorer name to its implementation.
func ScorerByName(name string) (cetd.Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerDefault:
		return cetd.LogDensityScorer{}, nil
	case ScorerPaper:
		return cetd.PaperScorer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scorer %q (want default or paper)", ErrConfig, name)
	}
}

// MergeExplicit copies from flags into dst every field whose flag was set
// on the command line, so flags win over env and the config file.
func MergeExplicit(dst *Config, flags Config, set map[string]bool) {
	if dst == nil {
		return
	}
	apply := map[string]func(){
		"url":               func() { dst.URL = flags.URL },
		"file":              func() { dst.FilePath = flags.FilePath },
		"output":            func() { dst.OutputPath = flags.OutputPath },
		"format":            func() { dst.Format = flags.Format },
		"separator":         func() { dst.Separator = flags.Separator },
		"keep-links":        func() { dst.KeepLinks = flags.KeepLinks },
		"scorer":            func() { dst.Scorer = flags.Scorer },
		"link-tags":         func() { dst.LinkTags = flags.LinkTags },
		"root":              func() { dst.Root = flags.Root },
		"drop-consent":      func() { dst.DropConsent = flags.DropConsent },
		"max-chars":         func() { dst.MaxChars = flags.MaxChars },
		"footer":            func() { dst.Footer = flags.Footer },
		"manifest":          func() { dst.Manifest = flags.Manifest },
		"ua":                func() { dst.UserAgent = flags.UserAgent },
		"timeout":           func() { dst.Timeout = flags.Timeout },
		"retries":           func() { dst.MaxAttempts = flags.MaxAttempts },
		"max-body":          func() { dst.MaxBodyBytes = flags.MaxBodyBytes },
		"robots":            func() { dst.Robots = flags.Robots },
		"cache.dir":         func() { dst.CacheDir = flags.CacheDir },
		"cache.maxAge":      func() { dst.CacheMaxAge = flags.CacheMaxAge },
		"cache.clear":       func() { dst.CacheClear = flags.CacheClear },
		"cache.strictPerms": func() { dst.CacheStrictPerms = flags.CacheStrictPerms },
		"cache.maxBytes":    func() { dst.CacheMaxBytes = flags.CacheMaxBytes },
		"cache.maxCount":    func() { dst.CacheMaxCount = flags.CacheMaxCount },
		"addr":              func() { dst.Addr = flags.Addr },
		"dump":              func() { dst.Dump = flags.Dump },
		"v":                 func() { dst.Verbose = flags.Verbose },
	}
	for name := range set {
		if fn, ok := apply[name]; ok {
			fn()
		}
	}
}
