// Package extract runs the full pipeline from raw page bytes to extracted
// content: charset decoding, parsing, density scoring, text selection and
// optional Markdown or HTML rendering.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocetd/internal/cetd"
	"github.com/hyperifyio/gocetd/internal/htmldoc"
	"github.com/hyperifyio/gocetd/internal/markdown"
	"github.com/hyperifyio/gocetd/internal/textmeasure"
)

// Result is the extracted content of one page.
type Result struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Segments []string `json:"segments"`
	Markdown string   `json:"markdown,omitempty"`
	HTML     string   `json:"html,omitempty"`
	Links    []string `json:"links,omitempty"`
	// Script is the dominant writing system of Text.
	Script   textmeasure.Script `json:"script"`
	Boundary string             `json:"boundary"`
	Score    float64            `json:"score"`
	// Chars counts characters of the boundary, PageChars of the whole root.
	Chars     int    `json:"chars"`
	PageChars int    `json:"page_chars"`
	Encoding  string `json:"encoding"`
	// DataQualityIssues counts non-finite scores that were clamped.
	DataQualityIssues int `json:"data_quality_issues,omitempty"`
}

// Options configures a DensityExtractor. The zero value extracts content
// text from <body> with the default scorer.
type Options struct {
	// Root is the CSS selector of the analysis root.
	Root string
	// LinkTags extends the set of link-like tags.
	LinkTags []string
	Scorer   cetd.Scorer
	// Separator joins text segments.
	Separator string
	KeepLinks bool
	// Markdown and HTML request rendered variants of the content.
	Markdown bool
	HTML     bool
	// BaseURL resolves relative links.
	BaseURL string
	// DropConsent removes cookie and consent banners before scoring.
	DropConsent bool
	// Dump, when set, receives the density tree outline.
	Dump   io.Writer
	Logger *zerolog.Logger
}

// DensityExtractor extracts the densest region of a page.
type DensityExtractor struct {
	opts     Options
	renderer *markdown.Renderer
}

// New returns an extractor for opts.
func New(opts Options) *DensityExtractor {
	e := &DensityExtractor{opts: opts}
	if opts.Markdown || opts.HTML {
		e.renderer = markdown.NewRenderer()
	}
	return e
}

// FromHTML extracts content text from UTF-8 HTML with default options.
func FromHTML(input []byte) (*Result, error) {
	return New(Options{}).Extract(input, "text/html; charset=utf-8")
}

func (e *DensityExtractor) logger() zerolog.Logger {
	if e.opts.Logger != nil {
		return *e.opts.Logger
	}
	return log.Logger
}

// Extract implements Extractor. Errors wrap the cetd sentinels, so callers
// can tell malformed input from pages without content.
func (e *DensityExtractor) Extract(raw []byte, contentType string) (*Result, error) {
	lg := e.logger()
	text, err := htmldoc.Decode(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", cetd.ErrInvalidDocument, err)
	}
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", cetd.ErrInvalidDocument, err)
	}
	if e.opts.DropConsent {
		if n := dropConsentBanners(gq); n > 0 {
			lg.Debug().Int("removed", n).Msg("dropped consent banners")
		}
	}
	doc, err := htmldoc.New(gq, htmldoc.WithRoot(e.opts.Root), htmldoc.WithLinkTags(e.opts.LinkTags...))
	if err != nil {
		return nil, err
	}

	tree, err := cetd.Build(doc, cetd.WithLogger(lg), cetd.WithScorer(e.opts.Scorer))
	if err != nil {
		return nil, err
	}
	if e.opts.Dump != nil {
		if err := tree.Dump(doc, e.opts.Dump); err != nil {
			return nil, fmt.Errorf("dump tree: %w", err)
		}
	}
	content, err := cetd.Extract(doc, tree, cetd.ExtractOptions{Separator: e.opts.Separator, KeepLinks: e.opts.KeepLinks})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Title:             doc.Title(),
		Text:              content.Text,
		Segments:          content.Segments,
		Script:            textmeasure.PrimaryScript(content.Text),
		Boundary:          doc.Tag(content.Boundary),
		Encoding:          htmldoc.EncodingName(raw, contentType),
		DataQualityIssues: tree.DataQualityIssues(),
		Links:             e.resolveLinks(doc.Links(content.Boundary)),
	}
	if n, err := tree.Node(content.Boundary); err == nil {
		res.Score = n.Score
		res.Chars = n.CharCount
	}
	if root, err := tree.Root(); err == nil {
		if n, err := tree.Node(root); err == nil {
			res.PageChars = n.CharCount
		}
	}

	if e.renderer != nil {
		fragment, err := doc.OuterHTML(content.Boundary)
		if err != nil {
			return nil, fmt.Errorf("render fragment: %w", err)
		}
		if e.opts.Markdown {
			md, err := e.renderer.Markdown(fragment, e.opts.BaseURL)
			if err != nil {
				return nil, err
			}
			res.Markdown = md
		}
		if e.opts.HTML {
			res.HTML = e.renderer.SanitizedHTML(fragment)
		}
	}

	lg.Debug().
		Str("boundary", res.Boundary).
		Float64("score", res.Score).
		Int("chars", res.Chars).
		Int("page_chars", res.PageChars).
		Int("segments", len(res.Segments)).
		Msg("extracted content")
	return res, nil
}

// resolveLinks makes hrefs absolute against BaseURL when one is set.
func (e *DensityExtractor) resolveLinks(hrefs []string) []string {
	if e.opts.BaseURL == "" || len(hrefs) == 0 {
		return hrefs
	}
	base, err := url.Parse(e.opts.BaseURL)
	if err != nil {
		return hrefs
	}
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		ref, err := url.Parse(h)
		if err != nil {
			out = append(out, h)
			continue
		}
		out = append(out, base.ResolveReference(ref).String())
	}
	return out
}
