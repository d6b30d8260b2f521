// Package paths normalizes file paths between the absolute form used for
// stat and parse operations and the repo-relative form used in map output.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// CacheDirName is the per-repository cache directory
	CacheDirName = ".repo_map_cache"
	// TagsDBFile is the persistent tag cache database
	TagsDBFile = "tags.db"
	// ConfigFile is the per-repository configuration file
	ConfigFile = "config.json"
)

// GetCacheDir returns the cache directory for a repository root
func GetCacheDir(repoRoot string) string {
	return filepath.Join(repoRoot, CacheDirName)
}

// EnsureCacheDir creates the cache directory if needed and returns its path
func EnsureCacheDir(repoRoot string) (string, error) {
	dir := GetCacheDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetTagsDBPath returns the path to the tag cache database for a repository
func GetTagsDBPath(repoRoot string) string {
	return filepath.Join(GetCacheDir(repoRoot), TagsDBFile)
}

// GetConfigPath returns the path to the repository configuration file
func GetConfigPath(repoRoot string) string {
	return filepath.Join(GetCacheDir(repoRoot), ConfigFile)
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	// Make path relative to repo root
	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	canonicalPath := filepath.ToSlash(relativePath)

	return canonicalPath, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}

	// Path is outside repo if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
// This is useful for paths that are already relative but need normalization
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	// Ensure we use forward slashes in the canonical path
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	// Convert to OS-specific path separator for joining
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// ResolveAbs returns path as an absolute path. Relative paths are resolved
// against root rather than the process working directory.
func ResolveAbs(root string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return JoinRepoPath(root, path)
}
