//go:build cgo

package tags

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor extracts tags from source files using tree-sitter.
type Extractor struct{}

// NewExtractor creates a new tag extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads a file and extracts its tags. A read failure is the
// only hard error; parse and query failures yield whatever tags were
// obtained before the failure.
func (e *Extractor) ExtractFile(ctx context.Context, relPath, absPath string) ([]Tag, error) {
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	return e.ExtractSource(ctx, relPath, absPath, source), nil
}

// ExtractSource extracts tags from source bytes. Files without a grammar
// contribute no tags but remain bare-path candidates for the map.
func (e *Extractor) ExtractSource(ctx context.Context, relPath, absPath string, source []byte) []Tag {
	ext := strings.ToLower(filepath.Ext(absPath))
	lang := ForExtension(ext)
	if lang == nil {
		return nil
	}

	query, err := lang.TagQuery()
	if err != nil {
		return nil
	}

	parser := lang.NewParser()
	defer parser.Close()
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var out []Tag
	defs, refs := 0, 0

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			captureName := query.CaptureNameForId(c.Index)

			var kind Kind
			switch {
			case strings.HasPrefix(captureName, "definition."):
				kind = Def
				defs++
			case strings.HasPrefix(captureName, "reference."):
				kind = Ref
				refs++
			default:
				continue
			}

			out = append(out, Tag{
				RelPath: relPath,
				AbsPath: absPath,
				Line:    int(c.Node.StartPoint().Row),
				Name:    string(source[c.Node.StartByte():c.Node.EndByte()]),
				Kind:    kind,
			})
		}
	}

	// Grammars without reference patterns still need references for the
	// graph: tokenize generically and record every name-like token.
	if defs > 0 && refs == 0 {
		out = append(out, LexReferences(relPath, absPath, source)...)
	}

	return out
}

// IsAvailable returns whether grammar-backed extraction is available.
func IsAvailable() bool {
	return true
}
