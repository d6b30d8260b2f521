package rank

import (
	"sort"

	"repomap/internal/tags"
)

// Related returns every file connected to the targets by a shared
// identifier: files referencing an identifier a target defines, and files
// defining an identifier a target references. The targets themselves are
// excluded and the result is sorted and deduplicated.
func Related(targetRel []string, fileTags map[string][]tags.Tag) []string {
	targetSet := make(map[string]struct{}, len(targetRel))
	for _, relPath := range targetRel {
		targetSet[relPath] = struct{}{}
	}

	m := buildTagMaps(fileTags)
	found := make(map[string]struct{})

	for name, definers := range m.defines {
		definedByTarget := false
		for definer := range definers {
			if _, ok := targetSet[definer]; ok {
				definedByTarget = true
				break
			}
		}
		if !definedByTarget {
			continue
		}
		for _, referencer := range m.references[name] {
			if _, ok := targetSet[referencer]; !ok {
				found[referencer] = struct{}{}
			}
		}
	}

	for name, referencers := range m.references {
		referencedByTarget := false
		for _, referencer := range referencers {
			if _, ok := targetSet[referencer]; ok {
				referencedByTarget = true
				break
			}
		}
		if !referencedByTarget {
			continue
		}
		for definer := range m.defines[name] {
			if _, ok := targetSet[definer]; !ok {
				found[definer] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(found))
	for relPath := range found {
		out = append(out, relPath)
	}
	sort.Strings(out)
	return out
}
