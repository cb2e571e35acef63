package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Decode transcodes raw page bytes to UTF-8. The encoding comes from the
// Content-Type header when it names one, otherwise from a byte order mark or
// a <meta> declaration, falling back to windows-1252 per the HTML standard.
// Byte sequences that are invalid in the detected encoding become U+FFFD.
func Decode(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("transcode: %w", err)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), nil
}

// EncodingName reports the encoding Decode would pick for raw.
func EncodingName(raw []byte, contentType string) string {
	_, name, _ := charset.DetermineEncoding(raw, contentType)
	return name
}
