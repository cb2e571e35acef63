package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("dotenv")
	}

	flags, set, showVersion, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(app.ExitFailure)
	}
	if showVersion {
		fmt.Println(app.VersionString("gocetd"))
		return
	}

	cfg, err := resolveConfig(flags, set)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(app.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		code, msg := app.ExitCode(err)
		log.Error().Err(err).Int("exit_code", code).Msg(msg)
		os.Exit(code)
	}
}

// parseFlags parses args into a Config and reports which flags were given
// explicitly, so they can take precedence over env and the config file.
func parseFlags(args []string, stderr io.Writer) (app.Config, map[string]bool, bool, error) {
	fs := flag.NewFlagSet("gocetd", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfg         app.Config
		linkTags    string
		showVersion bool
	)
	fs.StringVar(&cfg.URL, "url", "", "URL of the HTML page to extract")
	fs.StringVar(&cfg.FilePath, "file", "", "Path to a local HTML file, or - for stdin")
	fs.StringVar(&cfg.OutputPath, "output", "", "Path to write the result (stdout when empty)")
	fs.StringVar(&cfg.Format, "format", app.FormatText, "Output format: text, markdown, html or json")
	fs.StringVar(&cfg.ConfigPath, "config", os.Getenv("CETD_CONFIG"), "Path to a YAML or JSON config file")
	fs.StringVar(&cfg.Separator, "separator", "\n", "Separator between extracted text blocks")
	fs.BoolVar(&cfg.KeepLinks, "keep-links", false, "Keep link text inside the extracted region")
	fs.StringVar(&cfg.Scorer, "scorer", app.ScorerDefault, "Density scorer: default or paper")
	fs.StringVar(&linkTags, "link-tags", "", "Comma-separated extra link-like tags, e.g. nav,menu")
	fs.StringVar(&cfg.Root, "root", app.DefaultRoot, "CSS selector of the analysis root")
	fs.BoolVar(&cfg.DropConsent, "drop-consent", false, "Remove cookie and consent banners before scoring")
	fs.IntVar(&cfg.MaxChars, "max-chars", 0, "Truncate extracted text to this many characters (0 disables)")
	fs.BoolVar(&cfg.Footer, "footer", false, "Append a provenance footer to text and markdown output")
	fs.BoolVar(&cfg.Manifest, "manifest", false, "Write <output>.manifest.json next to the output file")
	fs.StringVar(&cfg.UserAgent, "ua", app.DefaultUserAgent, "User-Agent for HTTP requests")
	fs.DurationVar(&cfg.Timeout, "timeout", app.DefaultTimeout, "Per-request timeout")
	fs.IntVar(&cfg.MaxAttempts, "retries", 0, "Fetch attempts including the first (0 means 3)")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body", 0, "Maximum response body bytes (0 means 16 MiB)")
	fs.BoolVar(&cfg.Robots, "robots", false, "Honor robots.txt for -url")
	fs.StringVar(&cfg.CacheDir, "cache.dir", app.DefaultCacheDir, "Cache directory path (empty disables)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Serve and keep cache entries younger than this; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used cache entries above this size")
	fs.IntVar(&cfg.CacheMaxCount, "cache.maxCount", 0, "Evict least recently used cache entries above this count")
	fs.BoolVar(&cfg.Dump, "dump", false, "Print the density tree to stderr")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, nil, false, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return cfg, nil, false, fmt.Errorf("%w: unexpected arguments", app.ErrConfig)
	}

	if s := strings.TrimSpace(linkTags); s != "" {
		parts := strings.Split(s, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if v := strings.TrimSpace(p); v != "" {
				list = append(list, v)
			}
		}
		cfg.LinkTags = list
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return cfg, set, showVersion, nil
}

// resolveConfig applies precedence flags > env > config file > defaults and
// validates the result.
func resolveConfig(flags app.Config, set map[string]bool) (app.Config, error) {
	cfg := flags
	if strings.TrimSpace(cfg.ConfigPath) != "" {
		fc, err := app.LoadConfigFile(cfg.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", app.ErrConfig, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	app.MergeExplicit(&cfg, flags, set)
	return cfg, app.ValidateConfig(cfg)
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
