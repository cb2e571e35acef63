// Package markdown renders an extracted HTML fragment as Markdown or as
// sanitized HTML.
package markdown

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer converts fragments. It is safe for concurrent use.
type Renderer struct {
	conv   *converter.Converter
	policy *bluemonday.Policy
}

// NewRenderer returns a renderer with CommonMark and table support and the
// bluemonday user-generated-content policy.
func NewRenderer() *Renderer {
	return &Renderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Markdown converts fragment to Markdown. domain, when set, is used to
// absolutize relative links and image sources.
func (r *Renderer) Markdown(fragment, domain string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	clean := r.policy.Sanitize(fragment)
	var (
		md  string
		err error
	)
	if domain != "" {
		md, err = r.conv.ConvertString(clean, converter.WithDomain(domain))
	} else {
		md, err = r.conv.ConvertString(clean)
	}
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// SanitizedHTML strips scripts, event handlers and other active content from
// fragment.
func (r *Renderer) SanitizedHTML(fragment string) string {
	return strings.TrimSpace(r.policy.Sanitize(fragment))
}
