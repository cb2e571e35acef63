package cetd

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the tree as an indented outline, one node per line, for
// debugging. It works in any state after aggregation.
func (t *Tree) Dump(doc Document, w io.Writer) error {
	if t.state == Unbuilt || len(t.nodes) == 0 {
		return fmt.Errorf("%w: tree is unbuilt", ErrInvalidState)
	}
	stack := []int{len(t.nodes) - 1}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[i]

		label := "#" + n.Kind.String()
		if n.Kind == ElementNode {
			label = "<" + doc.Tag(n.ID) + ">"
		}
		_, err := fmt.Fprintf(w, "%s%s id=%d C=%d T=%d LC=%d LT=%d D=%.3f TD=%.3f S=%.3f\n",
			strings.Repeat("  ", n.Depth), label, n.ID,
			n.CharCount, n.TagCount, n.LinkCharCount, n.LinkTagCount,
			n.Density, n.TextDensity, n.Score)
		if err != nil {
			return err
		}
		kids := t.kids[i]
		for j := len(kids) - 1; j >= 0; j-- {
			stack = append(stack, kids[j])
		}
	}
	return nil
}
