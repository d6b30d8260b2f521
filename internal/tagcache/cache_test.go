package tagcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"repomap/internal/logging"
	"repomap/internal/tags"
)

// countingExtractor records how many times each file was extracted.
type countingExtractor struct {
	calls map[string]int
	tags  []tags.Tag
}

func newCountingExtractor(result []tags.Tag) *countingExtractor {
	return &countingExtractor{calls: map[string]int{}, tags: result}
}

func (e *countingExtractor) ExtractFile(ctx context.Context, relPath, absPath string) ([]tags.Tag, error) {
	e.calls[absPath]++
	return e.tags, nil
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestGetTagsCachesByMtime(t *testing.T) {
	tempDir := t.TempDir()
	path := writeTempFile(t, tempDir, "a.py", "def f():\n    pass\n")

	result := []tags.Tag{{RelPath: "a.py", AbsPath: path, Line: 0, Name: "f", Kind: tags.Def}}
	ext := newCountingExtractor(result)
	cache := NewTagCache(NewInMemoryTagStore(), ext, logging.Discard())

	first, err := cache.GetTags(context.Background(), "a.py", path, false)
	if err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}
	second, err := cache.GetTags(context.Background(), "a.py", path, false)
	if err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}

	if ext.calls[path] != 1 {
		t.Errorf("extractor called %d times, want 1", ext.calls[path])
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}
}

func TestGetTagsRegeneratesOnMtimeChange(t *testing.T) {
	tempDir := t.TempDir()
	path := writeTempFile(t, tempDir, "a.py", "def f():\n    pass\n")

	ext := newCountingExtractor(nil)
	cache := NewTagCache(NewInMemoryTagStore(), ext, logging.Discard())

	if _, err := cache.GetTags(context.Background(), "a.py", path, false); err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}

	// Bump mtime without changing content
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if _, err := cache.GetTags(context.Background(), "a.py", path, false); err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}

	if ext.calls[path] != 2 {
		t.Errorf("extractor called %d times, want 2", ext.calls[path])
	}
}

func TestGetTagsForceRefresh(t *testing.T) {
	tempDir := t.TempDir()
	path := writeTempFile(t, tempDir, "a.py", "def f():\n    pass\n")

	ext := newCountingExtractor(nil)
	cache := NewTagCache(NewInMemoryTagStore(), ext, logging.Discard())

	for i := 0; i < 3; i++ {
		if _, err := cache.GetTags(context.Background(), "a.py", path, true); err != nil {
			t.Fatalf("GetTags failed: %v", err)
		}
	}

	if ext.calls[path] != 3 {
		t.Errorf("extractor called %d times, want 3", ext.calls[path])
	}
}

func TestGetTagsMissingFile(t *testing.T) {
	ext := newCountingExtractor(nil)
	cache := NewTagCache(NewInMemoryTagStore(), ext, logging.Discard())

	if _, err := cache.GetTags(context.Background(), "gone.py", "/nonexistent/gone.py", false); err == nil {
		t.Error("expected error for missing file")
	}
	if len(ext.calls) != 0 {
		t.Error("extractor should not run for missing files")
	}
}

func TestInMemoryTagStore(t *testing.T) {
	store := NewInMemoryTagStore()

	if _, ok := store.Get("/a"); ok {
		t.Error("empty store should miss")
	}

	entry := Entry{Mtime: 12.5, Tags: []tags.Tag{{Name: "x", Kind: tags.Ref, Line: tags.NoLine}}}
	if err := store.Set("/a", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get("/a")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Mtime != 12.5 || len(got.Tags) != 1 || got.Tags[0].Name != "x" {
		t.Errorf("unexpected entry: %+v", got)
	}

	if err := store.Delete("/a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.Get("/a"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestDiskTagStoreRoundTrip(t *testing.T) {
	tempDir := t.TempDir()

	store, err := OpenDiskStore(tempDir, true, logging.Discard())
	if err != nil {
		t.Fatalf("OpenDiskStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	entry := Entry{
		Mtime: 1700000000.25,
		Tags: []tags.Tag{
			{RelPath: "a.py", AbsPath: "/repo/a.py", Line: 3, Name: "foo", Kind: tags.Def},
			{RelPath: "a.py", AbsPath: "/repo/a.py", Line: tags.NoLine, Name: "bar", Kind: tags.Ref},
		},
	}
	if err := store.Set("/repo/a.py", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get("/repo/a.py")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Mtime != entry.Mtime {
		t.Errorf("Mtime = %v, want %v", got.Mtime, entry.Mtime)
	}
	if len(got.Tags) != 2 || got.Tags[0] != entry.Tags[0] || got.Tags[1] != entry.Tags[1] {
		t.Errorf("tags differ: %+v", got.Tags)
	}

	// Replace keeps a single record
	entry.Mtime = 1700000001.0
	if err := store.Set("/repo/a.py", entry); err != nil {
		t.Fatalf("replace Set failed: %v", err)
	}
	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestDiskTagStorePersistsAcrossOpens(t *testing.T) {
	tempDir := t.TempDir()

	store, err := OpenDiskStore(tempDir, false, logging.Discard())
	if err != nil {
		t.Fatalf("OpenDiskStore failed: %v", err)
	}
	entry := Entry{Mtime: 42, Tags: []tags.Tag{{Name: "persisted", Kind: tags.Def}}}
	if err := store.Set("/repo/b.go", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenDiskStore(tempDir, false, logging.Discard())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, ok := reopened.Get("/repo/b.go")
	if !ok {
		t.Fatal("expected entry to survive reopen")
	}
	if got.Tags[0].Name != "persisted" {
		t.Errorf("unexpected tag: %+v", got.Tags[0])
	}
}

func TestDiskTagStoreHealsCorruptRecord(t *testing.T) {
	tempDir := t.TempDir()

	store, err := OpenDiskStore(tempDir, true, logging.Discard())
	if err != nil {
		t.Fatalf("OpenDiskStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	// Write garbage directly so decompression fails
	if _, err := store.conn.Exec(
		"INSERT INTO tag_entries (abs_path, mtime, payload) VALUES (?, ?, ?)",
		"/repo/corrupt.py", 1.0, []byte("not zstd"),
	); err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	if _, ok := store.Get("/repo/corrupt.py"); ok {
		t.Error("corrupt record should read as a miss")
	}

	// The record is gone afterwards
	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("corrupt record not healed, Len = %d", n)
	}
}

func TestOpenStoreFallsBackToMemory(t *testing.T) {
	tempDir := t.TempDir()

	// Occupy the cache dir path with a file so the directory cannot exist
	blocker := filepath.Join(tempDir, ".repo_map_cache")
	if err := os.WriteFile(blocker, []byte("in the way"), 0644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}

	store := OpenStore(tempDir, true, true, logging.Discard())
	t.Cleanup(func() { _ = store.Close() })

	if _, ok := store.(*InMemoryTagStore); !ok {
		t.Errorf("expected in-memory fallback, got %T", store)
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	store := OpenStore(t.TempDir(), false, false, logging.Discard())
	if _, ok := store.(*InMemoryTagStore); !ok {
		t.Errorf("disabled cache should be in-memory, got %T", store)
	}
}
