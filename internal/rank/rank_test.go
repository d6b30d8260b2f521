package rank

import (
	"reflect"
	"sort"
	"testing"

	"repomap/internal/tags"
)

func defTag(rel, name string, line int) tags.Tag {
	return tags.Tag{RelPath: rel, AbsPath: "/repo/" + rel, Line: line, Name: name, Kind: tags.Def}
}

func refTag(rel, name string, line int) tags.Tag {
	return tags.Tag{RelPath: rel, AbsPath: "/repo/" + rel, Line: line, Name: name, Kind: tags.Ref}
}

func itemPaths(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.RelPath
	}
	return out
}

func TestRankFocusBias(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"app.py": {
			refTag("app.py", "load_config", 3),
			refTag("app.py", "load_config", 9),
		},
		"config.py": {
			defTag("config.py", "load_config", 0),
		},
		"util.py": {
			defTag("util.py", "format_output", 0),
			refTag("util.py", "format_output", 4),
		},
	}

	items := Rank([]string{"app.py"}, []string{"config.py", "util.py"}, fileTags, nil, DefaultOptions())
	if len(items) == 0 {
		t.Fatal("expected ranked items")
	}
	if items[0].RelPath != "config.py" {
		t.Errorf("expected config.py ranked first, got %v", itemPaths(items))
	}
	if len(items[0].Tags) != 1 || items[0].Tags[0].Name != "load_config" {
		t.Errorf("expected load_config definition tags on first item, got %+v", items[0].Tags)
	}
}

// definitionRankShare runs the graph pipeline and returns the rank mass
// distributed onto one (file, identifier) definition, so two runs with
// different focus sets can be compared directly.
func definitionRankShare(t *testing.T, fileTags map[string][]tags.Tag, focusRel []string, key defKey) float64 {
	t.Helper()

	allFiles := make([]string, 0, len(fileTags))
	for relPath := range fileTags {
		allFiles = append(allFiles, relPath)
	}
	sort.Strings(allFiles)

	focusSet := make(map[string]struct{}, len(focusRel))
	for _, relPath := range focusRel {
		focusSet[relPath] = struct{}{}
	}

	opts := DefaultOptions()
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
		t.Fatalf("PageRank: %v", err)
	}

	share := 0.0
	for srcIdx, edges := range g.outEdges {
		totalWeight := 0.0
		for _, e := range edges {
			totalWeight += e.weight
		}
		if totalWeight == 0 {
			continue
		}
		for _, e := range edges {
			if g.nodes[e.target] == key.relPath && e.ident == key.ident {
				share += ranks[g.nodes[srcIdx]] * e.weight / totalWeight
			}
		}
	}
	return share
}

func TestFocusReferencerLiftsDefinerRank(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"a.py": {defTag("a.py", "handle_request", 0)},
		"b.py": {refTag("b.py", "handle_request", 2)},
		"c.py": {
			defTag("c.py", "render_page", 0),
			refTag("c.py", "render_page", 5),
		},
	}
	key := defKey{relPath: "a.py", ident: "handle_request"}

	unfocused := definitionRankShare(t, fileTags, nil, key)
	focused := definitionRankShare(t, fileTags, []string{"b.py"}, key)

	if unfocused <= 0 {
		t.Fatalf("expected positive baseline rank for a.py#handle_request, got %f", unfocused)
	}
	if focused <= unfocused {
		t.Errorf("focusing the referencer should strictly raise the definer's rank: focused=%f unfocused=%f",
			focused, unfocused)
	}
}

func TestRankExcludesFocusFiles(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"main.py": {
			defTag("main.py", "entry_point", 0),
			refTag("main.py", "helper_fn", 2),
		},
		"lib.py": {
			defTag("lib.py", "helper_fn", 0),
			refTag("lib.py", "entry_point", 5),
		},
	}

	items := Rank([]string{"main.py"}, []string{"lib.py"}, fileTags, nil, DefaultOptions())
	for _, it := range items {
		if it.RelPath == "main.py" {
			t.Errorf("focus file leaked into output: %v", itemPaths(items))
		}
	}
	if len(items) == 0 || items[0].RelPath != "lib.py" {
		t.Errorf("expected lib.py in output, got %v", itemPaths(items))
	}
}

func TestRankDefinesOnlyFallback(t *testing.T) {
	// No references anywhere: definitions stand in as self-references so
	// the files still surface with their tags.
	fileTags := map[string][]tags.Tag{
		"a.json": {defTag("a.json", "alpha_value", 0)},
		"b.json": {defTag("b.json", "beta_value", 0)},
	}

	items := Rank(nil, []string{"a.json", "b.json"}, fileTags, nil, DefaultOptions())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", itemPaths(items))
	}
	for _, it := range items {
		if len(it.Tags) == 0 {
			t.Errorf("expected definition tags on %s", it.RelPath)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"x.go": {defTag("x.go", "DoWork", 0), refTag("x.go", "Helper", 3)},
		"y.go": {defTag("y.go", "Helper", 0), refTag("y.go", "DoWork", 2)},
		"z.go": {defTag("z.go", "Helper", 0), refTag("z.go", "DoWork", 1)},
	}

	first := Rank(nil, []string{"x.go", "y.go", "z.go"}, fileTags, nil, DefaultOptions())
	for i := 0; i < 5; i++ {
		again := Rank(nil, []string{"x.go", "y.go", "z.go"}, fileTags, nil, DefaultOptions())
		if !reflect.DeepEqual(itemPaths(first), itemPaths(again)) {
			t.Fatalf("order changed between runs: %v vs %v", itemPaths(first), itemPaths(again))
		}
	}
}

func TestRankImportantFilesFirst(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"core.py":   {defTag("core.py", "run_pipeline", 0)},
		"caller.py": {refTag("caller.py", "run_pipeline", 1)},
	}

	important := func(rel string) bool { return rel == "README.md" }
	items := Rank(nil, []string{"core.py", "caller.py", "README.md"}, fileTags, important, DefaultOptions())
	if len(items) == 0 || items[0].RelPath != "README.md" {
		t.Fatalf("expected README.md first, got %v", itemPaths(items))
	}
	if items[0].Tags != nil {
		t.Errorf("important file placeholder should carry no tags")
	}
}

func TestRankEmptyInput(t *testing.T) {
	if items := Rank(nil, nil, nil, nil, DefaultOptions()); items != nil {
		t.Errorf("expected nil for empty input, got %v", itemPaths(items))
	}
}

func TestRankDefinitionsSortedByLine(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"m.py": {
			defTag("m.py", "shared_name", 20),
			defTag("m.py", "shared_name", 4),
		},
		"n.py": {refTag("n.py", "shared_name", 1)},
	}

	items := Rank(nil, []string{"m.py", "n.py"}, fileTags, nil, DefaultOptions())
	if len(items) == 0 || items[0].RelPath != "m.py" {
		t.Fatalf("expected m.py first, got %v", itemPaths(items))
	}
	got := items[0].Tags
	if len(got) != 2 || got[0].Line != 4 || got[1].Line != 20 {
		t.Errorf("expected tags sorted by line, got %+v", got)
	}
}

func TestImportantIdent(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"load_config", true},
		{"HttpServer", true},
		{"x", false},
		{"short", false},
		{"loop_i", true},
		{"abcdef", false},
	}
	for _, c := range cases {
		if got := importantIdent(c.name); got != c.want {
			t.Errorf("importantIdent(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPageRankUniform(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b", "x", 1)
	g.AddEdge("b", "c", "y", 1)
	g.AddEdge("c", "a", "z", 1)

	ranks, err := g.PageRank(nil, 0.85, 1e-6, 100)
	if err != nil {
		t.Fatalf("PageRank: %v", err)
	}
	for node, r := range ranks {
		if r < 0.33 || r > 0.34 {
			t.Errorf("symmetric cycle should rank evenly, %s = %f", node, r)
		}
	}
}

func TestPageRankPersonalization(t *testing.T) {
	g := NewGraph()
	g.AddEdge("focus", "target", "f", 1)
	g.AddNode("stray")

	ranks, err := g.PageRank(map[string]float64{"focus": 1}, 0.85, 1e-6, 100)
	if err != nil {
		t.Fatalf("PageRank: %v", err)
	}
	if ranks["target"] <= ranks["stray"] {
		t.Errorf("target of the personalized node should outrank a stray node: %v", ranks)
	}
}

func TestFlatRanks(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")

	ranks := g.FlatRanks(map[string]float64{"a": 10})
	total := 0.0
	for _, r := range ranks {
		total += r
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("flat ranks should normalize to 1, got %f", total)
	}
	if ranks["a"] <= ranks["b"] {
		t.Errorf("personalized node should hold more mass: %v", ranks)
	}
}

func TestRelatedFiles(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"a.py": {
			defTag("a.py", "foo", 0),
			refTag("a.py", "bar", 3),
		},
		"b.py": {refTag("b.py", "foo", 1)},
		"c.py": {defTag("c.py", "bar", 0)},
		"d.py": {defTag("d.py", "unrelated", 0)},
	}

	got := Related([]string{"a.py"}, fileTags)
	want := []string{"b.py", "c.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Related = %v, want %v", got, want)
	}
}

func TestRelatedExcludesTargets(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"a.py": {defTag("a.py", "foo", 0), refTag("a.py", "foo", 5)},
		"b.py": {refTag("b.py", "foo", 1)},
	}

	got := Related([]string{"a.py"}, fileTags)
	if !reflect.DeepEqual(got, []string{"b.py"}) {
		t.Errorf("Related = %v, want [b.py]", got)
	}
}

func TestRelatedNoMatches(t *testing.T) {
	fileTags := map[string][]tags.Tag{
		"a.py": {defTag("a.py", "foo", 0)},
		"b.py": {defTag("b.py", "baz", 0)},
	}

	if got := Related([]string{"a.py"}, fileTags); len(got) != 0 {
		t.Errorf("expected no related files, got %v", got)
	}
}
