package source

import "bytes"

// NormalizeCRLF replaces every \r\n with \n, leaving lone \r untouched.
// The bool result reports whether any replacement happened.
func NormalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.ContainsRune(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false
	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

// RemoveBOM strips a leading UTF-8 byte order mark, if present.
func RemoveBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}
	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}
