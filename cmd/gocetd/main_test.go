package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apppkg "github.com/hyperifyio/gocetd/internal/app"
	"github.com/hyperifyio/gocetd/internal/cetd"
)

const page = `<html><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article><h1>Heading</h1><p>Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore.</p></article>
</body></html>`

// Smoke test: run writes extracted text to the output file.
func TestRun_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte(page), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := apppkg.Config{FilePath: in, OutputPath: out}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "Heading\nLorem ipsum") {
		t.Fatalf("unexpected output %q", b)
	}
}

// A page without content surfaces ErrEmptyDocument so main exits with 3.
func TestRun_NoContent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	if err := os.WriteFile(in, []byte("<html><body>   </body></html>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	err := run(context.Background(), apppkg.Config{FilePath: in, OutputPath: filepath.Join(dir, "out.txt")})
	if !errors.Is(err, cetd.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if code, _ := apppkg.ExitCode(err); code != apppkg.ExitNoContent {
		t.Fatalf("exit code %d", code)
	}
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	cfg, set, version, err := parseFlags([]string{"-file", "page.html", "-format", "json", "-link-tags", "nav, menu", "-keep-links"}, &stderr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if version {
		t.Fatalf("version should be off")
	}
	if cfg.FilePath != "page.html" || cfg.Format != "json" || !cfg.KeepLinks {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.LinkTags) != 2 || cfg.LinkTags[1] != "menu" {
		t.Fatalf("LinkTags=%v", cfg.LinkTags)
	}
	if !set["format"] || set["scorer"] {
		t.Fatalf("explicit set=%v", set)
	}
	if cfg.Separator != "\n" || cfg.Root != "body" || cfg.Scorer != apppkg.ScorerDefault {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	if _, _, _, err := parseFlags([]string{"-file", "x", "extra"}, &stderr); !errors.Is(err, apppkg.ErrConfig) {
		t.Fatalf("expected ErrConfig for positional args, got %v", err)
	}
}

// Flags beat env, env beats the config file.
func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gocetd.yaml")
	yml := "input:\n  file: from-file.html\noutput:\n  format: html\nextract:\n  scorer: paper\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CETD_FORMAT", "markdown")
	t.Setenv("CETD_SCORER", "")

	var stderr bytes.Buffer
	flags, set, _, err := parseFlags([]string{"-config", cfgPath, "-scorer", "default"}, &stderr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(flags, set)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.FilePath != "from-file.html" {
		t.Fatalf("FilePath=%q, want value from config file", cfg.FilePath)
	}
	if cfg.Format != apppkg.FormatMarkdown {
		t.Fatalf("Format=%q, want env override", cfg.Format)
	}
	if cfg.Scorer != apppkg.ScorerDefault {
		t.Fatalf("Scorer=%q, want explicit flag", cfg.Scorer)
	}

	if _, err := resolveConfig(apppkg.Config{ConfigPath: filepath.Join(dir, "missing.yaml")}, nil); !errors.Is(err, apppkg.ErrConfig) {
		t.Fatalf("expected ErrConfig for missing file, got %v", err)
	}
}
