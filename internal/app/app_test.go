package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."

var pageHTML = `<!doctype html>
<html>
  <head><title>Test Page</title></head>
  <body>
    <nav><a href="/">Home</a> <a href="/blog">Blog</a> <a href="/about">About</a></nav>
    <article>
      <h1>Main Heading</h1>
      <p>` + sampleText + `</p>
      <p>` + sampleText + `</p>
    </article>
    <footer><a href="/privacy">Privacy</a></footer>
  </body>
</html>`

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	var out bytes.Buffer
	a.Stdout = &out
	a.Stderr = &bytes.Buffer{}
	return a, &out
}

func writePage(t *testing.T, html string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(p, []byte(html), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return p
}

func TestRun_FileToStdout(t *testing.T) {
	a, out := newTestApp(t, Config{FilePath: writePage(t, pageHTML), Format: FormatText})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "Main Heading\n" + sampleText + "\n" + sampleText + "\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestRun_Stdin(t *testing.T) {
	a, out := newTestApp(t, Config{FilePath: "-", Separator: " | "})
	a.Stdin = strings.NewReader(pageHTML)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Main Heading | Lorem") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRun_FormatsAndFooter(t *testing.T) {
	path := writePage(t, pageHTML)

	a, out := newTestApp(t, Config{FilePath: path, Format: FormatMarkdown, Footer: true})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run markdown: %v", err)
	}
	if !strings.HasPrefix(out.String(), "# Main Heading") {
		t.Fatalf("markdown output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "\n---\nSource: "+path+"; boundary=article;") {
		t.Fatalf("missing footer:\n%s", out.String())
	}

	a, out = newTestApp(t, Config{FilePath: path, Format: FormatHTML})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run html: %v", err)
	}
	if !strings.HasPrefix(out.String(), "<article>") {
		t.Fatalf("html output:\n%s", out.String())
	}

	a, out = newTestApp(t, Config{FilePath: path, Format: FormatJSON})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run json: %v", err)
	}
	var doc struct {
		Source   string   `json:"source"`
		Title    string   `json:"title"`
		Boundary string   `json:"boundary"`
		Segments []string `json:"segments"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out.String())
	}
	if doc.Source != path || doc.Title != "Test Page" || doc.Boundary != "article" || len(doc.Segments) != 3 {
		t.Fatalf("unexpected json: %+v", doc)
	}
}

func TestRun_MaxChars(t *testing.T) {
	a, out := newTestApp(t, Config{FilePath: writePage(t, pageHTML), MaxChars: 4})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "Main\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestRun_OutputFileAndManifest(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "nested", "out.txt")
	a, _ := newTestApp(t, Config{FilePath: writePage(t, pageHTML), OutputPath: outPath, Manifest: true})
	a.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	body, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	raw, err := os.ReadFile(outPath + ".manifest.json")
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.OutputSHA256 != computeSHA256Hex(body) {
		t.Fatalf("output digest mismatch")
	}
	if m.Boundary != "article" || m.Scorer != ScorerDefault || m.Format != FormatText {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if !m.GeneratedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("generated_at=%v", m.GeneratedAt)
	}
}

func TestRun_URLUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("user agent %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	cfg := Config{URL: srv.URL + "/post", CacheDir: t.TempDir(), CacheMaxAge: time.Hour}
	for i := 0; i < 2; i++ {
		a, out := newTestApp(t, cfg)
		if err := a.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !strings.HasPrefix(out.String(), "Main Heading\n") {
			t.Fatalf("run %d output %q", i, out.String())
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("server hits=%d, want 1", got)
	}
}

func TestRun_ErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		html string
		want int
	}{
		{"empty body", "<html><body></body></html>", ExitNoContent},
		{"links only", `<html><body><nav><a href="/">Home</a></nav></body></html>`, ExitNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestApp(t, Config{FilePath: writePage(t, tc.html)})
			err := a.Run(context.Background())
			if code, _ := ExitCode(err); code != tc.want {
				t.Fatalf("exit code %d, want %d (err=%v)", code, tc.want, err)
			}
		})
	}

	a, _ := newTestApp(t, Config{FilePath: writePage(t, pageHTML), Root: "section.missing"})
	if code, msg := ExitCode(a.Run(context.Background())); code != ExitInvalidDocument || msg != "invalid document" {
		t.Fatalf("missing root: code=%d msg=%q", code, msg)
	}

	a, _ = newTestApp(t, Config{FilePath: filepath.Join(t.TempDir(), "nope.html")})
	if code, _ := ExitCode(a.Run(context.Background())); code != ExitFailure {
		t.Fatalf("missing file: code=%d", code)
	}
}

func TestNew_RejectsUnknownNames(t *testing.T) {
	if _, err := New(context.Background(), Config{FilePath: "x", Format: "pdf"}); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := New(context.Background(), Config{FilePath: "x", Scorer: "bm25"}); err == nil {
		t.Fatalf("expected scorer error")
	}
}
