// Package tags extracts definition and reference tags from source files.
// Grammar-backed extraction uses tree-sitter queries; files whose grammar
// yields definitions but no references fall back to a generic tokenizer.
package tags

// Kind distinguishes definition tags from reference tags.
type Kind string

const (
	// Def marks a tag produced by a definition capture
	Def Kind = "def"
	// Ref marks a tag produced by a reference capture or the fallback tokenizer
	Ref Kind = "ref"
)

// NoLine is the line value for tags without a specific source line,
// i.e. references produced by the fallback tokenizer.
const NoLine = -1

// Tag is a single extracted identifier occurrence. Line is zero-based.
// Tags are immutable once produced for a given (file, mtime) pair.
type Tag struct {
	RelPath string `json:"relPath"`
	AbsPath string `json:"absPath"`
	Line    int    `json:"line"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
}

// extLang maps file extensions to grammar names.
var extLang = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascript", // JSX uses the JS parser
	".ts":   "typescript",
	".mts":  "typescript",
	".cts":  "typescript",
	".tsx":  "tsx",
	".py":   "python",
	".pyw":  "python",
	".rs":   "rust",
	".java": "java",
	".kt":   "kotlin",
	".kts":  "kotlin",
}

// SupportedExtension reports whether a grammar exists for a file extension.
func SupportedExtension(ext string) bool {
	_, ok := extLang[ext]
	return ok
}
