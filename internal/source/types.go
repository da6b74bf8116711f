package source

import "github.com/zeebo/xxh3"

// FileFlags encodes metadata about a source file.
type FileFlags uint8

const (
	// FileVirtual indicates the file was added from memory (editor buffer, test, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures the contents and derived metadata of a single workspace file.
type File struct {
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    xxh3.Uint128
	Flags   FileFlags
}

// LineCol represents a human-readable position in a file.
// Both fields are 1-based; Col counts bytes within the line.
type LineCol struct {
	Line uint32
	Col  uint32
}
