package cetd

// fakeDoc is an in-memory Document whose ids are pre-order positions.
type fakeDoc struct {
	nodes []fakeNode
	root  NodeID
	// noRoot makes Root report no root.
	noRoot bool
}

type fakeNode struct {
	kind     NodeKind
	tag      string
	text     string
	parent   NodeID
	children []NodeID
}

// shape describes a subtree for newDoc.
type shape struct {
	kind NodeKind
	tag  string
	text string
	kids []shape
}

func el(tag string, kids ...shape) shape { return shape{kind: ElementNode, tag: tag, kids: kids} }
func txt(s string) shape { return shape{kind: TextNode, text: s} }
func comment() shape { return shape{kind: OtherNode} }

func newDoc(root shape) *fakeDoc {
	d := &fakeDoc{}
	var add func(s shape, parent NodeID) NodeID
	add = func(s shape, parent NodeID) NodeID {
		id := NodeID(len(d.nodes))
		d.nodes = append(d.nodes, fakeNode{kind: s.kind, tag: s.tag, text: s.text, parent: parent})
		for _, k := range s.kids {
			cid := add(k, id)
			d.nodes[id].children = append(d.nodes[id].children, cid)
		}
		return id
	}
	add(root, -1)
	return d
}

// find returns the id of the n-th element (0-based, pre-order) with tag.
func (d *fakeDoc) find(tag string, n int) NodeID {
	for i, node := range d.nodes {
		if node.kind == ElementNode && node.tag == tag {
			if n == 0 {
				return NodeID(i)
			}
			n--
		}
	}
	return -1
}

func (d *fakeDoc) valid(id NodeID) bool { return id >= 0 && int(id) < len(d.nodes) }

func (d *fakeDoc) Root() (NodeID, bool) {
	if d.noRoot || len(d.nodes) == 0 {
		return 0, false
	}
	return d.root, true
}

func (d *fakeDoc) Kind(id NodeID) NodeKind {
	if !d.valid(id) {
		return InvalidNode
	}
	return d.nodes[id].kind
}

func (d *fakeDoc) Tag(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].tag
}

func (d *fakeDoc) Text(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].text
}

func (d *fakeDoc) Parent(id NodeID) (NodeID, bool) {
	if !d.valid(id) || d.nodes[id].parent < 0 {
		return 0, false
	}
	return d.nodes[id].parent, true
}

func (d *fakeDoc) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].children
}

func (d *fakeDoc) IsLinkLike(id NodeID) bool {
	return d.Kind(id) == ElementNode && IsLinkTag(d.nodes[id].tag)
}
