package fsops

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// WalkFiles enumerates the workspace's regular files in sorted order,
// skipping ignored paths and hidden directories.
func WalkFiles(root string, absolute, relative []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if IsFileIgnored(root, path, absolute, relative) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if IsFileIgnored(root, path, absolute, relative) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
