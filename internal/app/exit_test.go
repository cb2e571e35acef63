package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperifyio/gocetd/internal/cetd"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, ExitOK},
		{fmt.Errorf("page.html: %w", cetd.ErrEmptyDocument), ExitNoContent},
		{fmt.Errorf("%w: root not found", cetd.ErrInvalidDocument), ExitInvalidDocument},
		{fmt.Errorf("%w: bad format", ErrConfig), ExitFailure},
		{errors.New("disk full"), ExitFailure},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		code, msg := ExitCode(tc.err)
		if code != tc.code {
			t.Fatalf("ExitCode(%v)=%d, want %d", tc.err, code, tc.code)
		}
		if tc.err != nil {
			if seen[msg] {
				t.Fatalf("message %q reused", msg)
			}
			seen[msg] = true
		}
	}
}
