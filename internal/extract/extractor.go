package extract

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap scoring tactics without changing callers.
type Extractor interface {
	// Extract converts raw page bytes into a Result. contentType is the
	// value of the Content-Type header and may be empty.
	Extract(raw []byte, contentType string) (*Result, error)
}

var _ Extractor = (*DensityExtractor)(nil)
