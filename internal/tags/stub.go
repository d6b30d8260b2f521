//go:build !cgo

package tags

import "context"

// Extractor extracts tags from source files.
// This is a stub implementation for non-CGO builds.
type Extractor struct{}

// NewExtractor creates a new tag extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile extracts tags from a single file.
// Stub implementation yields no tags; files remain bare-path candidates.
func (e *Extractor) ExtractFile(ctx context.Context, relPath, absPath string) ([]Tag, error) {
	return nil, nil
}

// ExtractSource extracts tags from source bytes.
// Stub implementation yields no tags.
func (e *Extractor) ExtractSource(ctx context.Context, relPath, absPath string, source []byte) []Tag {
	return nil
}

// IsAvailable returns whether grammar-backed extraction is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
