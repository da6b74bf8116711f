// Package fsops provides the on-disk collaborators of the consolidation
// layer: a normalizing file reader, the ignore-pattern matcher, and a
// workspace walker for batch checking.
package fsops

import (
	"os"

	"rill/internal/source"
)

// DiskReader reads workspace files with the same CRLF/BOM normalization the
// analyzer applies when loading sources, so editor and disk contents compare
// byte for byte.
type DiskReader struct{}

// ReadFile returns the normalized contents of path. A missing file surfaces
// os.ErrNotExist; callers decide whether that is an error.
func (DiskReader) ReadFile(path string) (string, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content, _ = source.RemoveBOM(content)
	content, _ = source.NormalizeCRLF(content)
	return string(content), nil
}
