// Package discover finds candidate source files in a repository.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"repomap/internal/paths"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]struct{}{
	paths.CacheDirName: {},
	"__pycache__":      {},
	"node_modules":     {},
	".git":             {},
	".hg":              {},
	".svn":             {},
	"venv":             {},
	".venv":            {},
	"env":              {},
	".env":             {},
	"build":            {},
	"dist":             {},
	"vendor":           {},
}

// binaryExts are file extensions excluded from discovery.
var binaryExts = map[string]struct{}{
	// Images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".tiff": {}, ".ico": {}, ".svg": {},
	// Media
	".mp3": {}, ".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".wav": {},
	// Archives
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".7z": {}, ".rar": {},
	// Documents
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	// Other binaries
	".exe": {}, ".dll": {}, ".so": {}, ".o": {}, ".a": {}, ".class": {}, ".jar": {},
	// Logs/Temp
	".log": {}, ".tmp": {}, ".swp": {},
}

func skipDir(name string) bool {
	if _, skip := skipDirs[name]; skip {
		return true
	}
	// Hidden directories and tool scratch directories
	return strings.HasPrefix(name, ".")
}

// IsBinaryExt reports whether a file extension is excluded as binary.
func IsBinaryExt(ext string) bool {
	_, ok := binaryExts[strings.ToLower(ext)]
	return ok
}

// Files finds all files under root recursively, excluding binaries, hidden
// entries, well-known dependency/build directories, and gitignored paths.
// Returned paths are absolute and sorted. A root that is itself a file
// yields that single file (unless binary).
func Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if IsBinaryExt(filepath.Ext(root)) {
			return nil, nil
		}
		return []string{root}, nil
	}

	gi := loadGitignore(root)

	var results []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if IsBinaryExt(filepath.Ext(name)) {
			return nil
		}

		if gi != nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && gi.MatchesPath(rel) {
				return nil
			}
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
