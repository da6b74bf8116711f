package source

import (
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// NewFile builds a file record from already-normalized content, computing
// the line index and content hash.
func NewFile(path string, content []byte, flags FileFlags) *File {
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: BuildLineIndex(content),
		Hash:    xxh3.Hash128(content),
		Flags:   flags,
	}
}

// Load reads a file from disk, normalizes CRLF/BOM, and builds a File.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content, hadBOM := RemoveBOM(content)
	content, hadCRLF := NormalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return NewFile(path, content, flags), nil
}

// Offset resolves a 1-based position within the file to a byte offset.
func (f *File) Offset(pos LineCol) (int, bool) {
	return Offset(f.Content, f.LineIdx, pos)
}

func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// AbsolutePath resolves path to an absolute, cleaned form.
func AbsolutePath(path string) (string, error) {
	return filepath.Abs(path)
}
