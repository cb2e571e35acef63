package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/gocetd/internal/extract"
)

func TestBuildManifest_Digests(t *testing.T) {
	src := source{Name: "page.html", Body: []byte("<p>hello</p>")}
	res := &extract.Result{Boundary: "p", Score: 2, Chars: 5, PageChars: 5, Encoding: "utf-8"}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*3600))
	m := buildManifest(src, res, FormatText, ScorerDefault, "hello\n", now)
	if m.InputSHA256 != computeSHA256Hex(src.Body) || m.OutputSHA256 != computeSHA256Hex([]byte("hello\n")) {
		t.Fatalf("unexpected digests: %+v", m)
	}
	if len(m.InputSHA256) != 64 {
		t.Fatalf("digest length %d", len(m.InputSHA256))
	}
	if m.GeneratedAt.Location() != time.UTC || m.GeneratedAt.Hour() != 10 {
		t.Fatalf("generated_at not UTC: %v", m.GeneratedAt)
	}

	path := deriveManifestSidecarPath(filepath.Join(t.TempDir(), "out.txt"))
	if err := writeManifest(path, m); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back["source"] != "page.html" || back["boundary"] != "p" {
		t.Fatalf("unexpected sidecar: %v", back)
	}
}
