// Package render turns ranked definitions into source-context snippets
// and assembles them into the final map text. Rendered snippets and the
// per-file parse contexts behind them are both cached by modification
// time, since the budget search renders overlapping prefixes repeatedly.
package render

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"repomap/internal/logging"
	"repomap/internal/rank"
)

type treeKey struct {
	relPath string
	lois    string
	mtime   float64
}

type contextEntry struct {
	ctx   *fileContext
	mtime float64
}

// Renderer renders per-file snippets with scope context. Not safe for
// concurrent use; callers serialize map generation per instance.
type Renderer struct {
	logger        *logging.Logger
	maxLineLength int

	treeCache    map[treeKey]string
	contextCache map[string]contextEntry
}

// NewRenderer creates a renderer. maxLineLength bounds each output line
// so minified files cannot blow up the map.
func NewRenderer(maxLineLength int, logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Discard()
	}
	if maxLineLength <= 0 {
		maxLineLength = 200
	}
	return &Renderer{
		logger:        logger,
		maxLineLength: maxLineLength,
		treeCache:     make(map[treeKey]string),
		contextCache:  make(map[string]contextEntry),
	}
}

// ClearTreeCache drops rendered snippets. Called at the start of each
// map generation so one budget search cannot leak prefix-sized artifacts
// into the next. Parse contexts stay cached; mtime checks invalidate them.
func (r *Renderer) ClearTreeCache() {
	r.treeCache = make(map[treeKey]string)
}

func fileMtime(absPath string) (float64, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// RenderTree renders the given zero-based lines of interest from a file,
// each shown with the headers of its enclosing scopes. Failures come back
// as a single commented error line instead of propagating.
func (r *Renderer) RenderTree(absPath, relPath string, lois []int) string {
	mtime, err := fileMtime(absPath)
	if err != nil {
		return fmt.Sprintf("# Error: could not stat %s\n", relPath)
	}

	distinct := make(map[int]struct{}, len(lois))
	for _, loi := range lois {
		distinct[loi] = struct{}{}
	}
	sorted := make([]int, 0, len(distinct))
	for loi := range distinct {
		sorted = append(sorted, loi)
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, loi := range sorted {
		parts[i] = strconv.Itoa(loi)
	}
	key := treeKey{relPath: relPath, lois: strings.Join(parts, ","), mtime: mtime}

	if cached, ok := r.treeCache[key]; ok {
		return cached
	}

	fc, err := r.contextFor(absPath, relPath, mtime)
	if err != nil {
		r.logger.Warn("Failed to build render context", map[string]interface{}{
			"file":  relPath,
			"error": err.Error(),
		})
		return fmt.Sprintf("# Error processing %s\n", relPath)
	}

	res := fc.format(sorted)
	r.treeCache[key] = res
	return res
}

func (r *Renderer) contextFor(absPath, relPath string, mtime float64) (*fileContext, error) {
	if entry, ok := r.contextCache[relPath]; ok && entry.mtime == mtime {
		return entry.ctx, nil
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	fc, err := newFileContext(relPath, source)
	if err != nil {
		return nil, err
	}
	r.contextCache[relPath] = contextEntry{ctx: fc, mtime: mtime}
	return fc, nil
}

// FormatMap assembles ranked items into the map text. Items are grouped
// per file; tagged files render as a snippet under a "path:" heading,
// bare placeholders as just the path. Files in excluded never appear.
func (r *Renderer) FormatMap(items []rank.Item, excluded map[string]struct{}) string {
	if len(items) == 0 {
		return ""
	}

	type group struct {
		absPath string
		lois    []int
	}
	grouped := make(map[string]*group)
	var filesOnly []string
	filesOnlySeen := make(map[string]struct{})

	for _, item := range items {
		if _, ok := excluded[item.RelPath]; ok {
			continue
		}
		if len(item.Tags) == 0 {
			if _, ok := filesOnlySeen[item.RelPath]; !ok {
				filesOnlySeen[item.RelPath] = struct{}{}
				filesOnly = append(filesOnly, item.RelPath)
			}
			continue
		}
		g, ok := grouped[item.RelPath]
		if !ok {
			g = &group{absPath: item.Tags[0].AbsPath}
			grouped[item.RelPath] = g
		}
		for _, t := range item.Tags {
			if t.Line >= 0 {
				g.lois = append(g.lois, t.Line)
			}
		}
	}

	taggedFiles := make([]string, 0, len(grouped))
	for relPath := range grouped {
		taggedFiles = append(taggedFiles, relPath)
	}
	sort.Strings(taggedFiles)

	var sb strings.Builder
	for _, relPath := range taggedFiles {
		g := grouped[relPath]
		if len(g.lois) == 0 {
			// Only fallback-lexer lines: list the path without a snippet.
			sb.WriteString("\n")
			sb.WriteString(relPath)
			sb.WriteString("\n")
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(relPath)
		sb.WriteString(":\n")
		sb.WriteString(r.RenderTree(g.absPath, relPath, g.lois))
	}

	sort.Strings(filesOnly)
	for _, relPath := range filesOnly {
		if _, ok := grouped[relPath]; ok {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(relPath)
		sb.WriteString("\n")
	}

	out := sb.String()
	if out == "" {
		return ""
	}

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if utf8.RuneCountInString(line) > r.maxLineLength {
			runes := []rune(line)
			lines[i] = string(runes[:r.maxLineLength])
		}
	}
	out = strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
