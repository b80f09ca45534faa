package utils

import (
	"path/filepath"
	"strings"
)

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RelativeUnder returns path relative to root when path lies strictly inside root.
// Both inputs are cleaned first; "/media" does not contain "/media2/x".
func RelativeUnder(root, path string) (string, bool) {
	root = filepath.Clean(strings.TrimSpace(root))
	path = filepath.Clean(path)
	if root == "." || root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// LongestRoot returns the deepest root containing path and the path relative to it.
func LongestRoot(roots []string, path string) (root, rel string, ok bool) {
	for _, r := range roots {
		candidate, inside := RelativeUnder(r, path)
		if !inside {
			continue
		}
		cleaned := filepath.Clean(r)
		if !ok || len(cleaned) > len(root) {
			root, rel, ok = cleaned, candidate, true
		}
	}
	return root, rel, ok
}

// MatchBase reports whether the base name of path matches the glob pattern,
// ignoring case. An empty pattern matches everything.
func MatchBase(pattern, path string) bool {
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(filepath.Base(path)))
	return err == nil && ok
}
