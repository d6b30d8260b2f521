package tags

import "regexp"

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// keywords are skipped by the fallback tokenizer. The set is a union over
// the supported languages; an occasional false positive only costs one
// spurious reference edge.
var keywords = map[string]struct{}{
	"and": {}, "as": {}, "assert": {}, "async": {}, "await": {}, "bool": {},
	"break": {}, "byte": {}, "case": {}, "catch": {}, "chan": {}, "char": {},
	"class": {}, "const": {}, "continue": {}, "def": {}, "default": {},
	"defer": {}, "del": {}, "do": {}, "double": {}, "elif": {}, "else": {},
	"enum": {}, "except": {}, "extends": {}, "false": {}, "final": {},
	"finally": {}, "float": {}, "fn": {}, "for": {}, "from": {}, "func": {},
	"function": {}, "go": {}, "if": {}, "impl": {}, "implements": {},
	"import": {}, "in": {}, "int": {}, "interface": {}, "is": {}, "lambda": {},
	"let": {}, "long": {}, "map": {}, "match": {}, "mod": {}, "mut": {},
	"new": {}, "nil": {}, "none": {}, "not": {}, "null": {}, "or": {},
	"package": {}, "pass": {}, "private": {}, "pub": {}, "public": {},
	"raise": {}, "range": {}, "return": {}, "self": {}, "static": {},
	"string": {}, "struct": {}, "switch": {}, "this": {}, "throw": {},
	"throws": {}, "trait": {}, "true": {}, "try": {}, "type": {}, "use": {},
	"var": {}, "void": {}, "when": {}, "while": {}, "with": {}, "yield": {},
	"None": {}, "True": {}, "False": {},
}

// LexReferences tokenizes source generically and returns every name-like
// token as a reference tag with no line information. Used when a grammar
// produced definitions but no references.
func LexReferences(relPath, absPath string, source []byte) []Tag {
	var out []Tag
	for _, ident := range identRe.FindAll(source, -1) {
		name := string(ident)
		if _, skip := keywords[name]; skip {
			continue
		}
		out = append(out, Tag{
			RelPath: relPath,
			AbsPath: absPath,
			Line:    NoLine,
			Name:    name,
			Kind:    Ref,
		})
	}
	return out
}
