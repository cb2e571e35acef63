package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/app"
	"github.com/hyperifyio/gocetd/internal/evaluate"
	"github.com/hyperifyio/gocetd/internal/extract"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		goldDir     string
		htmlDir     string
		workers     int
		scorer      string
		dropConsent bool
		asJSON      bool
		verbose     bool
	)
	flag.StringVar(&goldDir, "gold", "data/GoldStandard", "Directory of gold-standard <name>.txt files")
	flag.StringVar(&htmlDir, "html", "data/finalrun-input", "Directory of <name>.html pages")
	flag.IntVar(&workers, "workers", 0, "Parallel workers (0 means one per CPU)")
	flag.StringVar(&scorer, "scorer", app.ScorerDefault, "Density scorer: default or paper")
	flag.BoolVar(&dropConsent, "drop-consent", false, "Remove cookie and consent banners before scoring")
	flag.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	sc, err := app.ScorerByName(scorer)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(app.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairs, err := evaluate.FindPairs(goldDir, htmlDir)
	if err != nil {
		log.Error().Err(err).Msg("read corpus")
		os.Exit(app.ExitFailure)
	}
	rep, err := evaluate.Run(ctx, pairs, evaluate.Options{
		Workers:   workers,
		Extractor: extract.New(extract.Options{Scorer: sc, Separator: " ", DropConsent: dropConsent}),
	})
	if err != nil {
		log.Error().Err(err).Msg("evaluation failed")
		os.Exit(app.ExitFailure)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Error().Err(err).Msg("encode report")
			os.Exit(app.ExitFailure)
		}
		return
	}
	printReport(os.Stdout, rep)
}

func printReport(w io.Writer, rep *evaluate.Report) {
	for _, s := range rep.Scores {
		fmt.Fprintf(w, "File: %s\n", s.Name)
		fmt.Fprintf(w, "  Precision: %.2f\n", s.Precision)
		fmt.Fprintf(w, "  Recall: %.2f\n", s.Recall)
		fmt.Fprintf(w, "  F1 Score: %.2f\n", s.F1)
		fmt.Fprintf(w, "  Processing time: %s\n", s.Duration.Round(time.Microsecond))
		if s.Slow() {
			fmt.Fprintln(w, "  SLOW PROCESSING")
		}
		fmt.Fprintln(w)
	}
	for _, name := range rep.Skipped {
		fmt.Fprintf(w, "File: %s produced NaN results (skipped)\n", name)
	}
	for _, f := range rep.Failed {
		fmt.Fprintf(w, "Error processing file %s: %s\n", f.Name, f.Err)
	}
	if len(rep.Scores) == 0 {
		fmt.Fprintln(w, "No valid results found.")
		return
	}
	fmt.Fprintln(w, "Overall Performance:")
	fmt.Fprintf(w, "  Files processed: %d\n", len(rep.Scores))
	fmt.Fprintf(w, "  Average Precision: %.2f\n", rep.AvgPrecision)
	fmt.Fprintf(w, "  Average Recall: %.2f\n", rep.AvgRecall)
	fmt.Fprintf(w, "  Average F1 Score: %.2f\n", rep.AvgF1)
	fmt.Fprintf(w, "Total processing time: %s\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Average time per file: %s\n", rep.PerFile().Round(time.Microsecond))
}
