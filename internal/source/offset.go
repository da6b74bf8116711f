package source

import (
	"fmt"

	"fortio.org/safecast"
)

// BuildLineIndex records the byte offset of every '\n' in content.
func BuildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("line offset overflow: %w", err))
			}
			out = append(out, off)
		}
	}
	return out
}

// Offset resolves a 1-based (line, col) position to a byte offset in content.
//
// The returned offset is always a valid splice point in [0, len(content)].
// The bool result reports whether the position named an exact location: it is
// false when the line or column lies outside the buffer, in which case the
// offset is the nearest valid one (end of the named line, or end of content).
func Offset(content []byte, lineIdx []uint32, pos LineCol) (int, bool) {
	if pos.Line == 0 || pos.Col == 0 {
		return 0, false
	}
	line := int(pos.Line)

	var start int
	switch {
	case line == 1:
		start = 0
	case line-2 < len(lineIdx):
		start = int(lineIdx[line-2]) + 1
	default:
		return len(content), false
	}

	// End of the line: the offset of its '\n', or end of content for the
	// final line. Col may point one past the last byte (at the newline).
	end := len(content)
	if line-1 < len(lineIdx) {
		end = int(lineIdx[line-1])
	}

	off := start + int(pos.Col) - 1
	if off > end {
		return end, false
	}
	return off, true
}
