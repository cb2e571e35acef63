package app

import (
	"strconv"
	"strings"
)

type footerInfo struct {
	Source    string
	Boundary  string
	Score     float64
	Scorer    string
	FromCache bool
}

// appendSourceFooter appends a deterministic provenance line recording where
// the content came from and how it was chosen. HTML and JSON output are
// returned unchanged; JSON already carries these fields.
func appendSourceFooter(body string, format string, info footerInfo) string {
	if format != FormatText && format != FormatMarkdown {
		return body
	}
	var b strings.Builder
	b.WriteString(body)
	if format == FormatMarkdown {
		b.WriteString("\n---\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("Source: ")
	b.WriteString(strings.TrimSpace(info.Source))
	b.WriteString("; boundary=")
	b.WriteString(info.Boundary)
	b.WriteString("; score=")
	b.WriteString(strconv.FormatFloat(info.Score, 'f', 3, 64))
	b.WriteString("; scorer=")
	b.WriteString(info.Scorer)
	b.WriteString("; cache=")
	b.WriteString(strconv.FormatBool(info.FromCache))
	b.WriteString("; gocetd=")
	b.WriteString(BuildVersion)
	b.WriteString("\n")
	return b.String()
}
