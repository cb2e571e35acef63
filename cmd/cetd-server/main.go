package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/app"
	"github.com/hyperifyio/gocetd/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("dotenv")
	}

	var (
		cfg         app.Config
		linkTags    string
		showVersion bool
	)
	flag.StringVar(&cfg.Addr, "addr", "", "Listen address (default "+app.DefaultAddr+", env CETD_ADDR)")
	flag.StringVar(&cfg.ConfigPath, "config", os.Getenv("CETD_CONFIG"), "Path to a YAML or JSON config file")
	flag.Int64Var(&cfg.MaxBodyBytes, "max-body", 0, "Maximum request body bytes (0 means 8 MiB)")
	flag.StringVar(&cfg.Scorer, "scorer", "", "Density scorer: default or paper")
	flag.StringVar(&cfg.Root, "root", "", "CSS selector of the analysis root (default body)")
	flag.StringVar(&linkTags, "link-tags", "", "Comma-separated extra link-like tags")
	flag.StringVar(&cfg.Separator, "separator", "", "Separator between extracted text blocks (default newline)")
	flag.BoolVar(&cfg.DropConsent, "drop-consent", false, "Remove cookie and consent banners before scoring")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.VersionString("cetd-server"))
		return
	}
	if err := loadConfig(&cfg, linkTags); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(app.ExitFailure)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	opts, err := app.ExtractOptions(cfg)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(app.ExitFailure)
	}
	srv := server.New(server.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		Extract:      opts,
		Logger:       log.Logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Str("version", app.BuildVersion).Msg("starting cetd-server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		os.Exit(app.ExitFailure)
	}
}

// loadConfig fills cfg with precedence flags > env > config file > defaults.
// Server flags default to zero values, so "unset" means zero throughout.
func loadConfig(cfg *app.Config, linkTags string) error {
	for _, p := range strings.Split(linkTags, ",") {
		if v := strings.TrimSpace(p); v != "" {
			cfg.LinkTags = append(cfg.LinkTags, v)
		}
	}
	app.ApplyEnvToConfig(cfg)
	if strings.TrimSpace(cfg.ConfigPath) != "" {
		fc, err := app.LoadConfigFile(cfg.ConfigPath)
		if err != nil {
			return fmt.Errorf("%w: %v", app.ErrConfig, err)
		}
		app.ApplyFileConfig(cfg, fc)
	}
	if cfg.Addr == "" {
		cfg.Addr = app.DefaultAddr
	}
	return app.ValidateServerConfig(*cfg)
}
