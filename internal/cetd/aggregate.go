package cetd

import (
	"fmt"

	"github.com/hyperifyio/gocetd/internal/textmeasure"
)

// frame is one entry of the explicit traversal stack.
type frame struct {
	id       NodeID
	kind     NodeKind
	depth    int
	children []NodeID
	next     int
	kids     []int

	link  bool
	muted bool

	node DensityNode
	// running sums over completed children
	chars, tags, linkChars, linkTags int
}

// Aggregate walks doc from its root in post-order and returns a tree holding
// the raw counts of every reachable node. The walk uses an explicit stack so
// deeply nested documents cannot exhaust the goroutine stack.
func Aggregate(doc Document, opts ...Option) (*Tree, error) {
	o := newOptions(opts)
	root, ok := doc.Root()
	if !ok {
		return nil, fmt.Errorf("%w: no root node", ErrInvalidDocument)
	}

	t := &Tree{
		index:  make(map[NodeID]int),
		logger: o.logger,
		scorer: o.scorer,
	}
	seen := make(map[NodeID]struct{})
	var stack []*frame

	push := func(id NodeID, depth int, muted, inLink bool) error {
		kind := doc.Kind(id)
		if kind == InvalidNode {
			return fmt.Errorf("%w: unknown node %d", ErrInvalidDocument, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: node %d reached twice", ErrInvalidDocument, id)
		}
		seen[id] = struct{}{}

		f := &frame{id: id, kind: kind, depth: depth, muted: muted}
		switch kind {
		case ElementNode:
			f.link = doc.IsLinkLike(id)
			f.muted = muted || IsNonContentTag(doc.Tag(id))
			f.children = doc.Children(id)
		case TextNode:
			if !muted {
				f.node.CharCount = textmeasure.Count(doc.Text(id))
			}
			if inLink {
				f.node.LinkCharCount = f.node.CharCount
			}
		}
		stack = append(stack, f)
		return nil
	}

	if err := push(root, 0, false, false); err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			if p, ok := doc.Parent(child); !ok || p != top.id {
				return nil, fmt.Errorf("%w: node %d is listed as a child of %d but reports another parent", ErrInvalidDocument, child, top.id)
			}
			if err := push(child, top.depth+1, top.muted, top.link); err != nil {
				return nil, err
			}
			continue
		}

		stack = stack[:len(stack)-1]
		idx := t.complete(top)
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			n := t.nodes[idx]
			parent.kids = append(parent.kids, idx)
			parent.chars += n.CharCount
			parent.tags += n.TagCount
			parent.linkChars += n.LinkCharCount
			parent.linkTags += n.LinkTagCount
		}
	}
	t.state = RawAggregated
	return t, nil
}

// complete finalizes the counts of f, appends it to the arena and returns its
// arena index, which is also its post-order position.
func (t *Tree) complete(f *frame) int {
	n := f.node
	n.ID = f.id
	n.Kind = f.kind
	n.Depth = f.depth
	if f.kind == ElementNode {
		n.TagCount = 1 + f.tags
		n.CharCount = f.chars
		n.LinkTagCount = f.linkTags
		n.LinkCharCount = f.linkChars
		if f.link {
			n.LinkTagCount++
			n.LinkCharCount = f.chars
		}
	}
	idx := len(t.nodes)
	n.Order = idx
	t.nodes = append(t.nodes, n)
	t.index[f.id] = idx
	t.kids = append(t.kids, f.kids)
	t.parent = append(t.parent, -1)
	for _, k := range f.kids {
		t.parent[k] = idx
	}
	return idx
}
