package cetd

import "strings"

// nonContentTags never contribute characters. They still count as a tag.
var nonContentTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"head":     {},
	"title":    {},
	"meta":     {},
	"link":     {},
	"base":     {},
	"iframe":   {},
	"object":   {},
	"embed":    {},
	"svg":      {},
	"canvas":   {},
}

// linkTags are link-like out of the box.
var linkTags = map[string]struct{}{
	"a":      {},
	"button": {},
	"select": {},
}

// blockTags start a new text segment during extraction.
var blockTags = map[string]struct{}{
	"address":    {},
	"article":    {},
	"aside":      {},
	"blockquote": {},
	"br":         {},
	"dd":         {},
	"details":    {},
	"div":        {},
	"dl":         {},
	"dt":         {},
	"fieldset":   {},
	"figcaption": {},
	"figure":     {},
	"footer":     {},
	"form":       {},
	"h1":         {},
	"h2":         {},
	"h3":         {},
	"h4":         {},
	"h5":         {},
	"h6":         {},
	"header":     {},
	"hr":         {},
	"li":         {},
	"main":       {},
	"nav":        {},
	"ol":         {},
	"p":          {},
	"pre":        {},
	"section":    {},
	"summary":    {},
	"table":      {},
	"td":         {},
	"th":         {},
	"tr":         {},
	"ul":         {},
}

// IsNonContentTag reports whether text below tag is ignored.
func IsNonContentTag(tag string) bool {
	_, ok := nonContentTags[strings.ToLower(tag)]
	return ok
}

// IsLinkTag reports whether tag is link-like by default.
func IsLinkTag(tag string) bool {
	_, ok := linkTags[strings.ToLower(tag)]
	return ok
}

// IsBlockTag reports whether tag separates text segments.
func IsBlockTag(tag string) bool {
	_, ok := blockTags[strings.ToLower(tag)]
	return ok
}
