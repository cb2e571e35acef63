// Package htmldoc adapts parsed HTML to the cetd.Document interface.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/gocetd/internal/cetd"
)

// DefaultRoot selects the analysis root.
const DefaultRoot = "body"

// Option configures Parse.
type Option func(*config)

type config struct {
	root     string
	linkTags []string
}

// WithRoot sets the CSS selector of the analysis root. The first match wins.
func WithRoot(selector string) Option {
	return func(c *config) {
		if s := strings.TrimSpace(selector); s != "" {
			c.root = s
		}
	}
}

// WithLinkTags adds tag names that count as link-like next to a, button and
// select.
func WithLinkTags(tags ...string) Option {
	return func(c *config) { c.linkTags = append(c.linkTags, tags...) }
}

// Document is an indexed HTML document. Element and text nodes get ids in
// document (pre-order) order; comments and doctypes are not exposed.
type Document struct {
	gq    *goquery.Document
	nodes []*html.Node
	ids   map[*html.Node]cetd.NodeID
	root  cetd.NodeID
	links map[string]struct{}
}

// Parse reads HTML from r. The input must be UTF-8; see Decode.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(gq, opts...)
}

// New indexes an already parsed goquery document.
func New(gq *goquery.Document, opts ...Option) (*Document, error) {
	cfg := config{root: DefaultRoot}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Document{
		gq:    gq,
		ids:   make(map[*html.Node]cetd.NodeID),
		links: make(map[string]struct{}),
	}
	for _, tag := range cfg.linkTags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			d.links[tag] = struct{}{}
		}
	}
	for _, top := range gq.Nodes {
		d.index(top)
	}

	sel := gq.Find(cfg.root).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: root selector %q matched nothing", cetd.ErrInvalidDocument, cfg.root)
	}
	id, ok := d.ids[sel.Nodes[0]]
	if !ok {
		return nil, fmt.Errorf("%w: root selector %q matched a hidden node", cetd.ErrInvalidDocument, cfg.root)
	}
	d.root = id
	return d, nil
}

func exposed(n *html.Node) bool {
	return n.Type == html.ElementNode || n.Type == html.TextNode
}

// index assigns pre-order ids to exposed nodes below and including n.
func (d *Document) index(n *html.Node) {
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if exposed(cur) {
			d.ids[cur] = cetd.NodeID(len(d.nodes))
			d.nodes = append(d.nodes, cur)
		}
		for c := cur.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
}

func (d *Document) node(id cetd.NodeID) *html.Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// Len returns the number of exposed nodes.
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) Root() (cetd.NodeID, bool) { return d.root, len(d.nodes) > 0 }

func (d *Document) Kind(id cetd.NodeID) cetd.NodeKind {
	n := d.node(id)
	switch {
	case n == nil:
		return cetd.InvalidNode
	case n.Type == html.ElementNode:
		return cetd.ElementNode
	case n.Type == html.TextNode:
		return cetd.TextNode
	default:
		return cetd.OtherNode
	}
}

func (d *Document) Tag(id cetd.NodeID) string {
	if n := d.node(id); n != nil && n.Type == html.ElementNode {
		return strings.ToLower(n.Data)
	}
	return ""
}

func (d *Document) Text(id cetd.NodeID) string {
	if n := d.node(id); n != nil && n.Type == html.TextNode {
		return n.Data
	}
	return ""
}

// Parent returns the nearest exposed ancestor.
func (d *Document) Parent(id cetd.NodeID) (cetd.NodeID, bool) {
	n := d.node(id)
	if n == nil {
		return 0, false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if pid, ok := d.ids[p]; ok {
			return pid, true
		}
	}
	return 0, false
}

func (d *Document) Children(id cetd.NodeID) []cetd.NodeID {
	n := d.node(id)
	if n == nil {
		return nil
	}
	var out []cetd.NodeID
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cid, ok := d.ids[c]; ok {
			out = append(out, cid)
		}
	}
	return out
}

func (d *Document) IsLinkLike(id cetd.NodeID) bool {
	n := d.node(id)
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	tag := strings.ToLower(n.Data)
	if cetd.IsLinkTag(tag) {
		return true
	}
	_, ok := d.links[tag]
	return ok
}

// Node returns the underlying html node, or nil for unknown ids.
func (d *Document) Node(id cetd.NodeID) *html.Node { return d.node(id) }

// ID returns the id of an html node that belongs to this document.
func (d *Document) ID(n *html.Node) (cetd.NodeID, bool) {
	id, ok := d.ids[n]
	return id, ok
}
