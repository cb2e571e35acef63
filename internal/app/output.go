package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/gocetd/internal/extract"
)

// jsonOutput is the -format json document.
type jsonOutput struct {
	Source string `json:"source"`
	*extract.Result
}

// render formats res for the given output format. Every format ends with a
// single newline.
func render(res *extract.Result, format, sourceName string) (string, error) {
	var body string
	switch format {
	case FormatText:
		body = res.Text
	case FormatMarkdown:
		body = res.Markdown
	case FormatHTML:
		body = res.HTML
	case FormatJSON:
		b, err := json.MarshalIndent(jsonOutput{Source: sourceName, Result: res}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		body = string(b)
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrConfig, format)
	}
	return strings.TrimRight(body, "\n") + "\n", nil
}
