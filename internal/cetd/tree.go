package cetd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// State is the lifecycle stage of a Tree.
type State int

const (
	Unbuilt State = iota
	RawAggregated
	Scored
)

func (s State) String() string {
	switch s {
	case RawAggregated:
		return "raw-aggregated"
	case Scored:
		return "scored"
	default:
		return "unbuilt"
	}
}

// DensityNode holds the statistics of one document node.
type DensityNode struct {
	ID   NodeID
	Kind NodeKind

	CharCount     int // Ci
	TagCount      int // Ti
	LinkCharCount int // LCi
	LinkTagCount  int // LTi

	// Density is Ci/Ti, or 0 for nodes without tags.
	Density float64
	// TextDensity is the scorer output, the value the node contributes to
	// its parent's score.
	TextDensity float64
	// Score ranks the node. Elements score the sum of their children's text
	// density, text nodes their own.
	Score float64

	Depth int
	// Order is the post-order position of the node.
	Order int
}

// Tree is the density side table of a document. The zero value is an
// unbuilt tree. A scored tree is immutable and safe for concurrent reads.
type Tree struct {
	nodes  []DensityNode
	index  map[NodeID]int
	kids   [][]int
	parent []int
	state  State
	issues int

	logger zerolog.Logger
	scorer Scorer

	rankOnce sync.Once
	ranked   []int
}

// Build aggregates and scores doc in one step.
func Build(doc Document, opts ...Option) (*Tree, error) {
	t, err := Aggregate(doc, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Score(); err != nil {
		return nil, err
	}
	return t, nil
}

// Score derives densities and scores for every node. It can run once, on a
// freshly aggregated tree.
func (t *Tree) Score() error {
	if t.state != RawAggregated {
		return fmt.Errorf("%w: score needs a raw-aggregated tree, have %s", ErrInvalidState, t.state)
	}
	scorer := t.scorer
	if scorer == nil {
		scorer = LogDensityScorer{}
	}
	body := t.nodes[len(t.nodes)-1]

	for i := range t.nodes {
		n := &t.nodes[i]
		if n.TagCount > 0 {
			n.Density = float64(n.CharCount) / float64(n.TagCount)
		}
		if n.CharCount == 0 {
			continue
		}
		n.TextDensity = t.clamp(n.ID, "text_density", scorer.TextDensity(*n, body))
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.Kind == TextNode {
			n.Score = n.TextDensity
			continue
		}
		var sum float64
		for _, k := range t.kids[i] {
			sum += t.nodes[k].TextDensity
		}
		n.Score = t.clamp(n.ID, "score", sum)
	}
	t.state = Scored
	if t.issues > 0 {
		t.logger.Warn().Int("count", t.issues).Msg("non-finite densities clamped to 0")
	}
	return nil
}

func (t *Tree) clamp(id NodeID, field string, v float64) float64 {
	if finite(v) {
		return v
	}
	t.issues++
	t.logger.Debug().Int("node", int(id)).Str("field", field).Float64("value", v).Msg("clamping non-finite value")
	return 0
}

// State returns the lifecycle stage.
func (t *Tree) State() State { return t.state }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// DataQualityIssues returns how many non-finite values were clamped while
// scoring.
func (t *Tree) DataQualityIssues() int { return t.issues }

// Root returns the id of the node the tree was built from.
func (t *Tree) Root() (NodeID, error) {
	if t.state == Unbuilt || len(t.nodes) == 0 {
		return 0, fmt.Errorf("%w: tree is unbuilt", ErrInvalidState)
	}
	return t.nodes[len(t.nodes)-1].ID, nil
}

// Node returns a copy of the statistics of id.
func (t *Tree) Node(id NodeID) (DensityNode, error) {
	if t.state == Unbuilt {
		return DensityNode{}, fmt.Errorf("%w: tree is unbuilt", ErrInvalidState)
	}
	i, ok := t.index[id]
	if !ok {
		return DensityNode{}, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return t.nodes[i], nil
}

// Contains reports whether id is part of the tree.
func (t *Tree) Contains(id NodeID) bool {
	_, ok := t.index[id]
	return ok
}

// Ranked returns every node id ordered by score, highest first. Equal scores
// keep post-order, so the node completed earlier in the document wins. That
// puts a descendant ahead of an ancestor with the same score on purpose: a
// lone text node ties with its element and the narrower region is kept.
func (t *Tree) Ranked() ([]NodeID, error) {
	if t.state != Scored {
		return nil, fmt.Errorf("%w: ranking needs a scored tree, have %s", ErrInvalidState, t.state)
	}
	t.rankOnce.Do(func() {
		order := make([]int, len(t.nodes))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return t.nodes[order[a]].Score > t.nodes[order[b]].Score
		})
		t.ranked = order
	})
	ids := make([]NodeID, len(t.ranked))
	for i, idx := range t.ranked {
		ids[i] = t.nodes[idx].ID
	}
	return ids, nil
}

// Highest returns the best scoring node. It fails with ErrEmptyDocument when
// no node has a positive score.
func (t *Tree) Highest() (NodeID, error) {
	ranked, err := t.Ranked()
	if err != nil {
		return 0, err
	}
	if len(ranked) == 0 {
		return 0, ErrEmptyDocument
	}
	best := t.nodes[t.index[ranked[0]]]
	if !(best.Score > 0) {
		return 0, fmt.Errorf("%w: highest score is %g", ErrEmptyDocument, best.Score)
	}
	return best.ID, nil
}
