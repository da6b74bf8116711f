package fsops

import (
	"path/filepath"
	"strings"
)

// IsFileIgnored reports whether path is excluded from the workspace by the
// configured ignore patterns. Absolute patterns are workspace-root-relative
// prefixes ("/vendor" ignores <root>/vendor and everything beneath it);
// relative patterns match any single path segment ("node_modules" ignores
// the segment wherever it appears). Paths outside root are never ignored
// here; the caller's scope filter handles them.
func IsFileIgnored(rootPath, path string, absolute, relative []string) bool {
	rel := rootRelative(rootPath, path)
	if rel == "" {
		return false
	}

	for _, pattern := range absolute {
		pattern = "/" + strings.Trim(filepath.ToSlash(pattern), "/")
		if pattern == "/" {
			continue
		}
		if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
			return true
		}
	}
	for _, pattern := range relative {
		pattern = strings.Trim(filepath.ToSlash(pattern), "/")
		if pattern == "" {
			continue
		}
		if strings.Contains(rel+"/", "/"+pattern+"/") {
			return true
		}
	}
	return false
}

// rootRelative returns "/"-prefixed slash form of path relative to root, or
// "" when path does not sit under root.
func rootRelative(rootPath, path string) string {
	if rootPath == "" || path == "" {
		return ""
	}
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return "/" + rel
}
