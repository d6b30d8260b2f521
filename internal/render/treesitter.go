//go:build cgo

package render

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"repomap/internal/tags"
)

// buildScopes parses the file and records every multi-line syntax node so
// the formatter can surface enclosing scope headers around lines of
// interest. Files without a grammar render with no scope context, which
// still shows the requested lines.
func buildScopes(fc *fileContext, relPath string, source []byte) error {
	lang := tags.ForExtension(strings.ToLower(filepath.Ext(relPath)))
	if lang == nil {
		return nil
	}

	parser := lang.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	walk(fc, tree.RootNode())
	return nil
}

func walk(fc *fileContext, node *sitter.Node) {
	fc.recordNode(int(node.StartPoint().Row), int(node.EndPoint().Row))
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(fc, node.Child(i))
	}
}
