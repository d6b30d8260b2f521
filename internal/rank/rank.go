// Package rank builds a weighted cross-file reference graph from extracted
// tags and orders files and definitions by personalized PageRank.
package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"repomap/internal/tags"
)

// Options tune graph weighting and the PageRank iteration.
type Options struct {
	Damping          float64
	Tolerance        float64
	MaxIterations    int
	ChatBoost        float64
	IdentBoost       float64
	CommonPenalty    float64
	CommonDefsCutoff int
}

// DefaultOptions returns the standard weighting.
func DefaultOptions() Options {
	return Options{
		Damping:          0.85,
		Tolerance:        1e-6,
		MaxIterations:    100,
		ChatBoost:        50.0,
		IdentBoost:       5.0,
		CommonPenalty:    0.1,
		CommonDefsCutoff: 5,
	}
}

// Item is one entry of the ranked output. Tags is nil for a bare-path
// placeholder (a file surfaced without specific definitions).
type Item struct {
	RelPath string
	Tags    []tags.Tag
}

type defKey struct {
	relPath string
	ident   string
}

// tagMaps indexes extracted tags three ways: which files define each
// identifier, which files reference it (duplicates preserved, one entry
// per reference), and the definition tags behind each (file, identifier)
// pair.
type tagMaps struct {
	defines     map[string]map[string]struct{}
	references  map[string][]string
	definitions map[defKey][]tags.Tag
}

func buildTagMaps(fileTags map[string][]tags.Tag) *tagMaps {
	m := &tagMaps{
		defines:     make(map[string]map[string]struct{}),
		references:  make(map[string][]string),
		definitions: make(map[defKey][]tags.Tag),
	}

	for relPath, fileTagList := range fileTags {
		for _, t := range fileTagList {
			switch t.Kind {
			case tags.Def:
				set, ok := m.defines[t.Name]
				if !ok {
					set = make(map[string]struct{})
					m.defines[t.Name] = set
				}
				set[relPath] = struct{}{}
				key := defKey{relPath: relPath, ident: t.Name}
				m.definitions[key] = append(m.definitions[key], t)
			case tags.Ref:
				m.references[t.Name] = append(m.references[t.Name], relPath)
			}
		}
	}

	// Some languages only surface definitions. Treating each definition
	// as a self-reference keeps those files connected in the graph.
	if len(m.references) == 0 {
		for name, definers := range m.defines {
			for relPath := range definers {
				m.references[name] = append(m.references[name], relPath)
			}
		}
	}

	for key := range m.definitions {
		sort.Slice(m.definitions[key], func(i, j int) bool {
			return m.definitions[key][i].Line < m.definitions[key][j].Line
		})
	}

	return m
}

// importantIdent reports whether an identifier looks like a deliberate,
// project-specific name: mixed case or snake_case, and long enough to not
// be a loop variable.
func importantIdent(name string) bool {
	if len(name) < 6 {
		return false
	}
	hasUpper := false
	hasLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return (hasUpper && hasLower) || strings.Contains(name, "_")
}

// buildGraph wires one edge per (referencer, definer, identifier) triple,
// weighted by sqrt of the reference count times the identifier and
// referencer multipliers. Self-loops are kept.
func buildGraph(m *tagMaps, focusSet map[string]struct{}, allFiles []string, opts Options) *Graph {
	g := NewGraph()
	for _, relPath := range allFiles {
		g.AddNode(relPath)
	}

	idents := make([]string, 0, len(m.defines))
	for name := range m.defines {
		if _, ok := m.references[name]; ok {
			idents = append(idents, name)
		}
	}
	sort.Strings(idents)

	for _, ident := range idents {
		definers := m.defines[ident]

		mul := 1.0
		if importantIdent(ident) {
			mul *= opts.IdentBoost
		}
		if strings.HasPrefix(ident, "_") || len(definers) > opts.CommonDefsCutoff {
			mul *= opts.CommonPenalty
		}

		refCounts := make(map[string]int)
		for _, referencer := range m.references[ident] {
			refCounts[referencer]++
		}

		referencers := make([]string, 0, len(refCounts))
		for referencer := range refCounts {
			referencers = append(referencers, referencer)
		}
		sort.Strings(referencers)

		definerList := make([]string, 0, len(definers))
		for definer := range definers {
			definerList = append(definerList, definer)
		}
		sort.Strings(definerList)

		for _, referencer := range referencers {
			useMul := mul
			if _, ok := focusSet[referencer]; ok {
				useMul *= opts.ChatBoost
			}
			weight := useMul * math.Sqrt(float64(refCounts[referencer]))
			for _, definer := range definerList {
				g.AddEdge(referencer, definer, ident, weight)
			}
		}
	}

	return g
}

// Rank orders the repository's definitions by flowing personalized
// PageRank from focus files through the reference graph. The returned
// list starts with important background files, then definition items by
// descending rank, then remaining files as bare placeholders. Focus files
// never appear in the output.
func Rank(focusRel, backgroundRel []string, fileTags map[string][]tags.Tag, important func(string) bool, opts Options) []Item {
	focusSet := make(map[string]struct{}, len(focusRel))
	for _, relPath := range focusRel {
		focusSet[relPath] = struct{}{}
	}

	allFiles := make([]string, 0, len(focusRel)+len(backgroundRel))
	seen := make(map[string]struct{})
	for _, relPath := range focusRel {
		if _, ok := seen[relPath]; !ok {
			seen[relPath] = struct{}{}
			allFiles = append(allFiles, relPath)
		}
	}
	for _, relPath := range backgroundRel {
		if _, ok := seen[relPath]; !ok {
			seen[relPath] = struct{}{}
			allFiles = append(allFiles, relPath)
		}
	}
	if len(allFiles) == 0 {
		return nil
	}
	sort.Strings(allFiles)

	m := buildTagMaps(fileTags)
	g := buildGraph(m, focusSet, allFiles, opts)

	personalization := make(map[string]float64)
	if len(focusSet) > 0 {
		base := 100.0 / float64(len(allFiles))
		for relPath := range focusSet {
			personalization[relPath] = base
		}
	}

	ranks, err := g.PageRank(personalization, opts.Damping, opts.Tolerance, opts.MaxIterations)
	if err != nil {
		ranks = g.FlatRanks(personalization)
	}

	// Distribute each file's rank across its outgoing edges, accumulating
	// per (definer, identifier) pair.
	rankedDefs := make(map[defKey]float64)
	for srcIdx, edges := range g.outEdges {
		if len(edges) == 0 {
			continue
		}
		totalWeight := 0.0
		for _, e := range edges {
			totalWeight += e.weight
		}
		if totalWeight == 0 {
			continue
		}
		srcRank := ranks[g.nodes[srcIdx]]
		for _, e := range edges {
			key := defKey{relPath: g.nodes[e.target], ident: e.ident}
			rankedDefs[key] += srcRank * e.weight / totalWeight
		}
	}

	sortedDefs := make([]defKey, 0, len(rankedDefs))
	for key := range rankedDefs {
		sortedDefs = append(sortedDefs, key)
	}
	sort.Slice(sortedDefs, func(i, j int) bool {
		ri, rj := rankedDefs[sortedDefs[i]], rankedDefs[sortedDefs[j]]
		if ri != rj {
			return ri > rj
		}
		if sortedDefs[i].relPath != sortedDefs[j].relPath {
			return sortedDefs[i].relPath < sortedDefs[j].relPath
		}
		return sortedDefs[i].ident < sortedDefs[j].ident
	})

	var items []Item
	included := make(map[string]struct{})
	for _, key := range sortedDefs {
		if _, ok := focusSet[key.relPath]; ok {
			continue
		}
		defTags := m.definitions[key]
		if len(defTags) == 0 {
			continue
		}
		items = append(items, Item{RelPath: key.relPath, Tags: defTags})
		included[key.relPath] = struct{}{}
	}

	// Important files that earned no ranked definition are hoisted to the
	// front, so manifests and READMEs survive tight budgets.
	specialSet := make(map[string]struct{})
	var special []string
	if important != nil {
		for _, relPath := range backgroundRel {
			if _, ok := included[relPath]; ok {
				continue
			}
			if _, ok := focusSet[relPath]; ok {
				continue
			}
			if _, ok := specialSet[relPath]; ok {
				continue
			}
			if important(relPath) {
				specialSet[relPath] = struct{}{}
				special = append(special, relPath)
			}
		}
		sort.Strings(special)
	}

	// Files with rank but no surfaced definitions come next, by
	// descending file-level rank.
	type fileRank struct {
		relPath string
		rank    float64
	}
	var rankedLeft []fileRank
	var unranked []string
	for _, relPath := range allFiles {
		if _, ok := included[relPath]; ok {
			continue
		}
		if _, ok := focusSet[relPath]; ok {
			continue
		}
		if _, ok := specialSet[relPath]; ok {
			continue
		}
		if r, ok := ranks[relPath]; ok && r > 0 {
			rankedLeft = append(rankedLeft, fileRank{relPath: relPath, rank: r})
		} else {
			unranked = append(unranked, relPath)
		}
	}
	sort.Slice(rankedLeft, func(i, j int) bool {
		if rankedLeft[i].rank != rankedLeft[j].rank {
			return rankedLeft[i].rank > rankedLeft[j].rank
		}
		return rankedLeft[i].relPath < rankedLeft[j].relPath
	})
	for _, fr := range rankedLeft {
		items = append(items, Item{RelPath: fr.relPath})
		included[fr.relPath] = struct{}{}
	}
	sort.Strings(unranked)
	for _, relPath := range unranked {
		items = append(items, Item{RelPath: relPath})
		included[relPath] = struct{}{}
	}

	if len(special) > 0 {
		prepend := make([]Item, 0, len(special)+len(items))
		for _, relPath := range special {
			prepend = append(prepend, Item{RelPath: relPath})
		}
		items = append(prepend, items...)
	}

	return items
}
