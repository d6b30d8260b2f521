package render

import (
	"sort"
	"strings"
)

// headerMax caps how many lines of an enclosing scope's header are shown.
const headerMax = 10

// fileContext holds the per-file structure needed to render lines of
// interest with their enclosing scopes. Building one requires parsing the
// file, so instances are cached per (rel_path, mtime) and reused across
// renders of different line sets.
type fileContext struct {
	relPath  string
	lines    []string
	numLines int

	// scopes[i] = start lines of every multi-line node spanning line i
	scopes []map[int]struct{}
	// header[i] = [start, end) line range shown when the scope starting
	// at line i becomes visible
	header [][2]int
}

func newFileContext(relPath string, source []byte) (*fileContext, error) {
	code := string(source)
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	lines := strings.Split(code, "\n")

	fc := &fileContext{
		relPath:  relPath,
		lines:    lines,
		numLines: len(lines) + 1,
	}
	fc.scopes = make([]map[int]struct{}, fc.numLines)
	fc.header = make([][2]int, fc.numLines)
	for i := range fc.scopes {
		fc.scopes[i] = make(map[int]struct{})
		fc.header[i] = [2]int{i, i + 1}
	}

	if err := buildScopes(fc, relPath, []byte(code)); err != nil {
		return nil, err
	}
	return fc, nil
}

// recordNode registers a multi-line syntax node: every line it spans
// gains its start line as a scope, and the smallest node starting at a
// line defines that line's header range.
func (fc *fileContext) recordNode(startLine, endLine int) {
	if endLine <= startLine {
		return
	}
	if startLine < 0 || startLine >= fc.numLines {
		return
	}
	if endLine >= fc.numLines {
		endLine = fc.numLines - 1
	}

	size := endLine - startLine
	cur := fc.header[startLine]
	curSize := cur[1] - cur[0]
	if curSize <= 1 || size < curSize {
		end := endLine
		if size > headerMax {
			end = startLine + headerMax
		}
		fc.header[startLine] = [2]int{startLine, end}
	}

	for i := startLine; i <= endLine; i++ {
		fc.scopes[i][startLine] = struct{}{}
	}
}

// format renders the lines of interest plus the headers of their
// enclosing scopes. Hidden stretches collapse to an elision marker.
func (fc *fileContext) format(lois []int) string {
	show := make(map[int]struct{})
	for _, loi := range lois {
		if loi >= 0 && loi < len(fc.lines) {
			show[loi] = struct{}{}
		}
	}
	if len(show) == 0 {
		return ""
	}

	for loi := range show {
		fc.addParentScopes(show, loi)
	}
	fc.closeSmallGaps(show)

	var sb strings.Builder
	_, dots := show[0]
	dots = !dots
	for i, line := range fc.lines {
		if i == len(fc.lines)-1 && line == "" {
			break
		}
		if _, ok := show[i]; !ok {
			if dots {
				sb.WriteString("⋮...\n")
				dots = false
			}
			continue
		}
		sb.WriteString("│")
		sb.WriteString(line)
		sb.WriteString("\n")
		dots = true
	}
	return sb.String()
}

// addParentScopes reveals the header of every scope enclosing line i.
// Scopes opening at the very top of the file stay hidden; showing the
// module preamble for every line adds noise without orientation value.
func (fc *fileContext) addParentScopes(show map[int]struct{}, i int) {
	if i < 0 || i >= fc.numLines {
		return
	}
	for scopeStart := range fc.scopes[i] {
		headStart, headEnd := fc.header[scopeStart][0], fc.header[scopeStart][1]
		if headStart > 0 {
			for l := headStart; l < headEnd; l++ {
				show[l] = struct{}{}
			}
		}
	}
}

// closeSmallGaps fills single-line holes between shown lines and pulls in
// a trailing blank line after a shown non-blank line, so renders don't
// fragment into one-line slivers.
func (fc *fileContext) closeSmallGaps(show map[int]struct{}) {
	sorted := make([]int, 0, len(show))
	for i := range show {
		sorted = append(sorted, i)
	}
	sort.Ints(sorted)

	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1]-sorted[i] == 2 {
			show[sorted[i]+1] = struct{}{}
		}
	}
	for _, i := range sorted {
		if i+1 >= len(fc.lines) || i >= fc.numLines-2 {
			continue
		}
		if strings.TrimSpace(fc.lines[i]) != "" && strings.TrimSpace(fc.lines[i+1]) == "" {
			show[i+1] = struct{}{}
		}
	}
}
