package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocetd/internal/cetd"
)

// Title returns the trimmed text of the first <title>.
func (d *Document) Title() string {
	return strings.TrimSpace(d.gq.Find("title").First().Text())
}

func (d *Document) selection(id cetd.NodeID) (*goquery.Selection, error) {
	n := d.node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %d", cetd.ErrNodeNotFound, id)
	}
	return goquery.NewDocumentFromNode(n).Selection, nil
}

// Links returns the distinct href values of anchors at or below id, in
// document order. Fragment-only and javascript: links are dropped.
func (d *Document) Links(id cetd.NodeID) []string {
	sel, err := d.selection(id)
	if err != nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		out = append(out, href)
	}
	if sel.Is("a[href]") {
		add(sel)
	}
	sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) { add(s) })
	return out
}

// OuterHTML renders id including its own tag.
func (d *Document) OuterHTML(id cetd.NodeID) (string, error) {
	sel, err := d.selection(id)
	if err != nil {
		return "", err
	}
	return goquery.OuterHtml(sel)
}

// InnerHTML renders the children of id.
func (d *Document) InnerHTML(id cetd.NodeID) (string, error) {
	sel, err := d.selection(id)
	if err != nil {
		return "", err
	}
	return sel.Html()
}
