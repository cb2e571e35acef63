// Package cetd implements content extraction via text density (CETD).
//
// A Tree mirrors a Document with per-node character and tag statistics,
// derives a density and a composite score for every node, and ranks nodes so
// that the densest region of the page can be returned as its main content.
// The package depends only on the Document interface; parsing HTML is left
// to adapters such as internal/htmldoc.
package cetd

// NodeID identifies a node inside a Document. Values are opaque to this
// package and only meaningful to the Document that issued them.
type NodeID int

// NodeKind classifies document nodes.
type NodeKind int

const (
	// InvalidNode is returned for ids the document does not know.
	InvalidNode NodeKind = iota
	ElementNode
	TextNode
	// OtherNode covers comments, doctypes and processing instructions.
	OtherNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case OtherNode:
		return "other"
	default:
		return "invalid"
	}
}

// Document is the read-only view of a parsed page the algorithm needs.
// Implementations must be stable for as long as a Tree built from them is in
// use; the Tree never mutates or retains the document.
type Document interface {
	// Root returns the node analysis starts from, usually <body>.
	Root() (NodeID, bool)
	Kind(id NodeID) NodeKind
	// Tag returns the lower-case tag name of an element.
	Tag(id NodeID) string
	// Text returns the raw character data of a text node.
	Text(id NodeID) string
	Parent(id NodeID) (NodeID, bool)
	// Children returns the children of id in document order.
	Children(id NodeID) []NodeID
	// IsLinkLike reports whether an element is link-like (anchors, buttons,
	// selects and whatever else the document is configured to treat so).
	IsLinkLike(id NodeID) bool
}
