package app

import (
	"errors"

	"github.com/hyperifyio/gocetd/internal/cetd"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitInvalidDocument = 2
	ExitNoContent       = 3
)

// ExitCode maps a Run error to the process exit status and a short,
// distinct description of its kind.
func ExitCode(err error) (int, string) {
	switch {
	case err == nil:
		return ExitOK, ""
	case errors.Is(err, cetd.ErrEmptyDocument):
		return ExitNoContent, "no content found"
	case errors.Is(err, cetd.ErrInvalidDocument):
		return ExitInvalidDocument, "invalid document"
	case errors.Is(err, ErrConfig):
		return ExitFailure, "invalid configuration"
	default:
		return ExitFailure, "run failed"
	}
}
