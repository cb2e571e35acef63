package cetd

import (
	"strings"

	"github.com/hyperifyio/gocetd/internal/textmeasure"
)

// DefaultSeparator joins extracted segments.
const DefaultSeparator = "\n"

// ExtractOptions controls text collection. The zero value collects content
// text: links are skipped and segments are joined by DefaultSeparator.
type ExtractOptions struct {
	// Separator joins segments. Empty means DefaultSeparator.
	Separator string
	// KeepLinks includes text below link-like elements.
	KeepLinks bool
}

// Content is the text of the selected region.
type Content struct {
	// Boundary is the element the text was collected from.
	Boundary NodeID
	// Segments holds one normalized entry per block of text.
	Segments []string
	Text     string
}

// Fragment returns the element that bounds the main content: the highest
// scoring node, or its nearest element ancestor when that node is text.
func Fragment(doc Document, tree *Tree) (NodeID, error) {
	best, err := tree.Highest()
	if err != nil {
		return 0, err
	}
	id := best
	for doc.Kind(id) != ElementNode {
		p, ok := doc.Parent(id)
		if !ok || !tree.Contains(p) {
			return best, nil
		}
		id = p
	}
	return id, nil
}

// Extract collects the text of the main content region in document order.
func Extract(doc Document, tree *Tree, opts ExtractOptions) (*Content, error) {
	boundary, err := Fragment(doc, tree)
	if err != nil {
		return nil, err
	}
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	c := &Content{Boundary: boundary}
	var run []string
	flush := func() {
		if s := textmeasure.Join(run); s != "" {
			c.Segments = append(c.Segments, s)
		}
		run = run[:0]
	}

	type visit struct {
		id   NodeID
		exit bool
	}
	stack := []visit{{id: boundary}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch doc.Kind(v.id) {
		case TextNode:
			run = append(run, doc.Text(v.id))
		case ElementNode:
			tag := doc.Tag(v.id)
			if v.exit {
				if IsBlockTag(tag) {
					flush()
				}
				continue
			}
			if IsNonContentTag(tag) {
				continue
			}
			if v.id != boundary && !opts.KeepLinks && doc.IsLinkLike(v.id) {
				continue
			}
			if IsBlockTag(tag) {
				flush()
			}
			stack = append(stack, visit{id: v.id, exit: true})
			children := doc.Children(v.id)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, visit{id: children[i]})
			}
		}
	}
	flush()

	c.Text = strings.TrimSpace(strings.Join(c.Segments, sep))
	return c, nil
}
