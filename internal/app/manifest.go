package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/hyperifyio/gocetd/internal/extract"
)

// manifest is a machine-readable record of one extraction run, written next
// to the output file.
type manifest struct {
	Source       string    `json:"source"`
	InputSHA256  string    `json:"input_sha256"`
	OutputSHA256 string    `json:"output_sha256"`
	Format       string    `json:"format"`
	Scorer       string    `json:"scorer"`
	Boundary     string    `json:"boundary"`
	Score        float64   `json:"score"`
	Chars        int       `json:"chars"`
	PageChars    int       `json:"page_chars"`
	Encoding     string    `json:"encoding"`
	FromCache    bool      `json:"from_cache"`
	Version      string    `json:"version"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of b.
func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func buildManifest(src source, res *extract.Result, format, scorer, output string, now time.Time) manifest {
	return manifest{
		Source:       src.Name,
		InputSHA256:  computeSHA256Hex(src.Body),
		OutputSHA256: computeSHA256Hex([]byte(output)),
		Format:       format,
		Scorer:       scorer,
		Boundary:     res.Boundary,
		Score:        res.Score,
		Chars:        res.Chars,
		PageChars:    res.PageChars,
		Encoding:     res.Encoding,
		FromCache:    src.FromCache,
		Version:      BuildVersion,
		GeneratedAt:  now.UTC(),
	}
}

func writeManifest(path string, m manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
