// Package evaluate scores extraction quality against a gold-standard corpus
// with word-level longest-common-subsequence precision, recall and F1.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/extract"
)

// SlowThreshold flags documents that took longer than this to process.
const SlowThreshold = 500 * time.Millisecond

// Pair is one gold text file and the HTML page it describes.
type Pair struct {
	Name     string
	GoldPath string
	HTMLPath string
}

// FindPairs matches <goldDir>/<name>.txt with <htmlDir>/<name>.html.
// Gold files without a page are skipped. Pairs are sorted by name.
func FindPairs(goldDir, htmlDir string) ([]Pair, error) {
	entries, err := os.ReadDir(goldDir)
	if err != nil {
		return nil, err
	}
	var pairs []Pair
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".txt")
		htmlPath := filepath.Join(htmlDir, name+".html")
		if _, err := os.Stat(htmlPath); err != nil {
			continue
		}
		pairs = append(pairs, Pair{Name: name, GoldPath: filepath.Join(goldDir, e.Name()), HTMLPath: htmlPath})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs, nil
}

// Score is the result for one document.
type Score struct {
	Name      string        `json:"name"`
	Precision float64       `json:"precision"`
	Recall    float64       `json:"recall"`
	F1        float64       `json:"f1"`
	Duration  time.Duration `json:"duration"`
}

// Slow reports whether the document exceeded SlowThreshold.
func (s Score) Slow() bool { return s.Duration > SlowThreshold }

// valid reports whether every figure is a number.
func (s Score) valid() bool {
	return !math.IsNaN(s.Precision) && !math.IsNaN(s.Recall) && !math.IsNaN(s.F1)
}

// Compare scores normalized extracted text against normalized gold text.
// Empty inputs and a zero overlap produce NaN figures, as 0/0 does.
func Compare(gold, extracted string) Score {
	lcs := float64(LCS(gold, extracted))
	p := lcs / float64(utf8.RuneCountInString(extracted))
	r := lcs / float64(utf8.RuneCountInString(gold))
	return Score{Precision: p, Recall: r, F1: 2 * p * r / (p + r)}
}

// FileError records a document that could not be processed.
type FileError struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// Report aggregates a corpus run.
type Report struct {
	Scores []Score `json:"scores"`
	// Skipped names documents whose figures were NaN.
	Skipped []string    `json:"skipped,omitempty"`
	Failed  []FileError `json:"failed,omitempty"`

	AvgPrecision float64       `json:"avg_precision"`
	AvgRecall    float64       `json:"avg_recall"`
	AvgF1        float64       `json:"avg_f1"`
	Elapsed      time.Duration `json:"elapsed"`
}

// PerFile returns the mean wall time per scored document.
func (r *Report) PerFile() time.Duration {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(len(r.Scores))
}

// Options configures Run.
type Options struct {
	// Workers defaults to runtime.NumCPU().
	Workers int
	// Extractor defaults to extract.New(extract.Options{Separator: " "}).
	Extractor extract.Extractor
	Logger    *zerolog.Logger
}

// ErrNoPairs is returned when there is nothing to evaluate.
var ErrNoPairs = errors.New("no document pairs")

// Run evaluates every pair on a pool of workers. Per-document failures are
// collected in the report rather than aborting the run; cancellation of ctx
// stops scheduling and returns ctx.Err().
func Run(ctx context.Context, pairs []Pair, opts Options) (*Report, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ex := opts.Extractor
	if ex == nil {
		ex = extract.New(extract.Options{Separator: " "})
	}
	lg := log.Logger
	if opts.Logger != nil {
		lg = *opts.Logger
	}

	start := time.Now()
	type outcome struct {
		score Score
		err   error
	}
	results := make([]outcome, len(pairs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := scorePair(ex, pairs[i])
				results[i] = outcome{score: s, err: err}
			}
		}()
	}

	var ctxErr error
schedule:
	for i := range pairs {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break schedule
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if ctxErr != nil {
		return nil, ctxErr
	}

	rep := &Report{}
	for i, o := range results {
		name := pairs[i].Name
		switch {
		case o.err != nil:
			lg.Warn().Err(o.err).Str("file", name).Msg("evaluation failed")
			rep.Failed = append(rep.Failed, FileError{Name: name, Err: o.err.Error()})
		case !o.score.valid():
			lg.Debug().Str("file", name).Msg("NaN result skipped")
			rep.Skipped = append(rep.Skipped, name)
		default:
			rep.Scores = append(rep.Scores, o.score)
			rep.AvgPrecision += o.score.Precision
			rep.AvgRecall += o.score.Recall
			rep.AvgF1 += o.score.F1
		}
	}
	if n := float64(len(rep.Scores)); n > 0 {
		rep.AvgPrecision /= n
		rep.AvgRecall /= n
		rep.AvgF1 /= n
	}
	rep.Elapsed = time.Since(start)
	return rep, nil
}

func scorePair(ex extract.Extractor, p Pair) (Score, error) {
	start := time.Now()
	gold, err := os.ReadFile(p.GoldPath)
	if err != nil {
		return Score{}, err
	}
	raw, err := os.ReadFile(p.HTMLPath)
	if err != nil {
		return Score{}, err
	}
	res, err := ex.Extract(raw, "")
	if err != nil {
		return Score{}, fmt.Errorf("extract: %w", err)
	}
	s := Compare(Normalize(CleanGold(strings.ToValidUTF8(string(gold), "\uFFFD"))), Normalize(res.Text))
	s.Name = p.Name
	s.Duration = time.Since(start)
	return s, nil
}
