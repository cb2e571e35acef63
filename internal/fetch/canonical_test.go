package fetch

import "testing"

func TestCanonicalURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://EXAMPLE.com/page?utm_source=x&utm_medium=y", "https://example.com/page"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/a?b=2&a=1&fbclid=z", "https://example.com/a?a=1&b=2"},
		{"http://example.com/", "http://example.com/"},
	}
	for _, tc := range cases {
		got, err := CanonicalURL(tc.in)
		if err != nil {
			t.Fatalf("CanonicalURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("CanonicalURL(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := CanonicalURL("http://[::1"); err == nil {
		t.Fatalf("expected parse error")
	}
}
