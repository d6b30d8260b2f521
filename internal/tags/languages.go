//go:build cgo

package tags

import (
	"embed"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Language pairs a tree-sitter grammar with its tag query.
type Language struct {
	Name      string
	lang      *sitter.Language
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// TagQuery returns the compiled tag query (safe to share across goroutines).
func (l *Language) TagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

var languages = map[string]*Language{
	"go":         {Name: "go", lang: golang.GetLanguage()},
	"javascript": {Name: "javascript", lang: javascript.GetLanguage()},
	"typescript": {Name: "typescript", lang: typescript.GetLanguage()},
	"tsx":        {Name: "tsx", lang: tsx.GetLanguage()},
	"python":     {Name: "python", lang: python.GetLanguage()},
	"rust":       {Name: "rust", lang: rust.GetLanguage()},
	"java":       {Name: "java", lang: java.GetLanguage()},
	"kotlin":     {Name: "kotlin", lang: kotlin.GetLanguage()},
}

// ForExtension resolves a grammar by file extension, nil when unsupported.
func ForExtension(ext string) *Language {
	name, ok := extLang[ext]
	if !ok {
		return nil
	}
	return languages[name]
}
