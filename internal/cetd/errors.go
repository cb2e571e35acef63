package cetd

import "errors"

var (
	// ErrInvalidDocument reports a document whose structure cannot be
	// traversed: no root, a child the document does not know, a child whose
	// parent disagrees, or a node reachable twice.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrNodeNotFound is returned for ids that are not part of the tree.
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidState is returned when an operation needs a later lifecycle
	// state than the tree is in.
	ErrInvalidState = errors.New("invalid tree state")
	// ErrEmptyDocument means no node has a positive score.
	ErrEmptyDocument = errors.New("no content found")
)
