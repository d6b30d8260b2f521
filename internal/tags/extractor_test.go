//go:build cgo

package tags

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractSourcePython(t *testing.T) {
	source := []byte(`class Greeter:
    def greet(self, name):
        return format_name(name)

def format_name(name):
    return name.strip()
`)

	e := NewExtractor()
	got := e.ExtractSource(context.Background(), "greeter.py", "/repo/greeter.py", source)

	var defs, refs []Tag
	for _, tag := range got {
		switch tag.Kind {
		case Def:
			defs = append(defs, tag)
		case Ref:
			refs = append(refs, tag)
		}
	}

	wantDefs := map[string]int{"Greeter": 0, "greet": 1, "format_name": 4}
	for name, line := range wantDefs {
		found := false
		for _, d := range defs {
			if d.Name == name {
				found = true
				if d.Line != line {
					t.Errorf("def %s line = %d, want %d", name, d.Line, line)
				}
			}
		}
		if !found {
			t.Errorf("missing definition tag for %s", name)
		}
	}

	foundCall := false
	for _, r := range refs {
		if r.Name == "format_name" {
			foundCall = true
			if r.Line == NoLine {
				t.Error("grammar reference should carry a real line")
			}
		}
	}
	if !foundCall {
		t.Error("missing reference tag for format_name call")
	}
}

func TestExtractSourceGo(t *testing.T) {
	source := []byte(`package demo

type Widget struct{}

func NewWidget() *Widget {
	return buildWidget()
}

func buildWidget() *Widget {
	return &Widget{}
}
`)

	e := NewExtractor()
	got := e.ExtractSource(context.Background(), "widget.go", "/repo/widget.go", source)

	names := map[Kind]map[string]bool{Def: {}, Ref: {}}
	for _, tag := range got {
		names[tag.Kind][tag.Name] = true
	}

	for _, want := range []string{"Widget", "NewWidget", "buildWidget"} {
		if !names[Def][want] {
			t.Errorf("missing definition tag for %s", want)
		}
	}
	if !names[Ref]["buildWidget"] {
		t.Error("missing reference tag for buildWidget call")
	}
}

func TestExtractSourceUnsupportedExtension(t *testing.T) {
	e := NewExtractor()
	got := e.ExtractSource(context.Background(), "notes.txt", "/repo/notes.txt", []byte("hello world"))
	if len(got) != 0 {
		t.Errorf("unsupported extension should yield no tags, got %d", len(got))
	}
}

func TestExtractFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "repomap-tags-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	path := filepath.Join(tempDir, "util.py")
	if err := os.WriteFile(path, []byte("def helper():\n    pass\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	e := NewExtractor()
	got, err := e.ExtractFile(context.Background(), "util.py", path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}

	foundDef := false
	for _, tag := range got {
		if tag.Kind == Def && tag.Name == "helper" {
			foundDef = true
		}
	}
	if !foundDef {
		t.Error("missing definition tag for helper")
	}
}

func TestExtractFileMissing(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractFile(context.Background(), "gone.py", "/nonexistent/gone.py"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFallbackTokenizerWhenNoReferenceCaptures(t *testing.T) {
	// A file with definitions only: the fallback tokenizer is not used when
	// the grammar has reference patterns and at least one fires elsewhere,
	// but a defs-only file with zero grammar references gets lexed refs.
	source := []byte("def lonely():\n    pass\n")

	e := NewExtractor()
	got := e.ExtractSource(context.Background(), "lonely.py", "/repo/lonely.py", source)

	hasLexRef := false
	for _, tag := range got {
		if tag.Kind == Ref && tag.Line == NoLine {
			hasLexRef = true
		}
	}
	if !hasLexRef {
		t.Error("expected fallback tokenizer references for defs-only file")
	}
}
