package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "gocetd.yaml")
	content := `input:
  url: https://example.com/post
output:
  format: markdown
extract:
  separator: " | "
  scorer: paper
  linkTags: [nav]
cache:
  dir: /tmp/cetd
  maxAge: 24h
server:
  addr: ":9090"
`
	if err := os.WriteFile(yml, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(yml)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if fc.Input.URL != "https://example.com/post" || fc.Output.Format != "markdown" || fc.Cache.MaxAge != 24*time.Hour {
		t.Fatalf("unexpected yaml config: %+v", fc)
	}
	if fc.Extract.Separator == nil || *fc.Extract.Separator != " | " {
		t.Fatalf("separator not decoded")
	}

	js := filepath.Join(dir, "gocetd.json")
	if err := os.WriteFile(js, []byte(`{"input":{"file":"page.html"},"fetch":{"maxAttempts":5}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err = LoadConfigFile(js)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if fc.Input.File != "page.html" || fc.Fetch.MaxAttempts != 5 {
		t.Fatalf("unexpected json config: %+v", fc)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"input":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyFileConfig_KeepsExplicitValues(t *testing.T) {
	var fc FileConfig
	fc.Input.URL = "https://example.com/post"
	fc.Output.Format = FormatJSON
	fc.Extract.Scorer = ScorerPaper
	fc.Extract.Root = "main"
	fc.Cache.Dir = "/var/cache/cetd"
	sep := ""
	fc.Extract.Separator = &sep

	cfg := Config{Format: FormatHTML, Scorer: ScorerDefault, Root: DefaultRoot, CacheDir: DefaultCacheDir, Separator: "\n"}
	ApplyFileConfig(&cfg, fc)
	if cfg.URL != fc.Input.URL {
		t.Fatalf("URL=%q", cfg.URL)
	}
	if cfg.Format != FormatHTML {
		t.Fatalf("explicit format replaced: %q", cfg.Format)
	}
	if cfg.Scorer != ScorerPaper || cfg.Root != "main" || cfg.CacheDir != "/var/cache/cetd" {
		t.Fatalf("defaults not replaced: %+v", cfg)
	}
	if cfg.Separator != "" {
		t.Fatalf("explicit empty separator ignored: %q", cfg.Separator)
	}
}

func TestMergeExplicit_FlagsWin(t *testing.T) {
	cfg := Config{Format: FormatJSON, Scorer: ScorerPaper}
	flags := Config{Format: FormatText, Scorer: ScorerDefault}
	MergeExplicit(&cfg, flags, map[string]bool{"format": true})
	if cfg.Format != FormatText || cfg.Scorer != ScorerPaper {
		t.Fatalf("Format=%q Scorer=%q", cfg.Format, cfg.Scorer)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"file", Config{FilePath: "page.html"}, true},
		{"stdin", Config{FilePath: "-", Format: "md"}, true},
		{"url", Config{URL: "https://example.com", Scorer: ScorerPaper}, true},
		{"neither", Config{}, false},
		{"both", Config{URL: "https://example.com", FilePath: "page.html"}, false},
		{"format", Config{FilePath: "page.html", Format: "pdf"}, false},
		{"scorer", Config{FilePath: "page.html", Scorer: "bm25"}, false},
		{"negative", Config{FilePath: "page.html", MaxChars: -1}, false},
		{"manifest without output", Config{FilePath: "page.html", Manifest: true}, false},
	}
	for _, tc := range cases {
		err := ValidateConfig(tc.cfg)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: expected ErrConfig, got %v", tc.name, err)
		}
	}
	if err := ValidateServerConfig(Config{}); !errors.Is(err, ErrConfig) {
		t.Fatalf("server config without addr: %v", err)
	}
	if err := ValidateServerConfig(Config{Addr: DefaultAddr}); err != nil {
		t.Fatalf("server config: %v", err)
	}
}
