package typecheck

import (
	"strings"
	"unicode/utf8"

	"rill/internal/analysis"
	"rill/internal/source"
)

// Diagnostic codes emitted by the text checks.
const (
	CodeConflictMarker     = "CHK0001"
	CodeInvalidEncoding    = "CHK0002"
	CodeTrailingWhitespace = "CHK0003"
)

// CheckFile runs the text checks over one file and returns its diagnostics
// in line order.
func CheckFile(f *source.File) []analysis.Diagnostic {
	var diags []analysis.Diagnostic

	if !utf8.Valid(f.Content) {
		diags = append(diags, analysis.Diagnostic{
			Path:      f.Path,
			StartLine: 1,
			StartCol:  1,
			EndLine:   1,
			EndCol:    1,
			Severity:  analysis.SeverityError,
			Code:      CodeInvalidEncoding,
			Message:   "file is not valid UTF-8",
		})
		return diags
	}

	lineNum := 0
	for line := range strings.Lines(string(f.Content)) {
		lineNum++
		trimmed := strings.TrimSuffix(line, "\n")
		if marker := conflictMarker(trimmed); marker != "" {
			diags = append(diags, analysis.Diagnostic{
				Path:      f.Path,
				StartLine: lineNum,
				StartCol:  1,
				EndLine:   lineNum,
				EndCol:    len(marker) + 1,
				Severity:  analysis.SeverityError,
				Code:      CodeConflictMarker,
				Message:   "unresolved merge conflict marker",
			})
			continue
		}
		if stripped := strings.TrimRight(trimmed, " \t"); len(stripped) < len(trimmed) && stripped != "" {
			diags = append(diags, analysis.Diagnostic{
				Path:      f.Path,
				StartLine: lineNum,
				StartCol:  len(stripped) + 1,
				EndLine:   lineNum,
				EndCol:    len(trimmed) + 1,
				Severity:  analysis.SeverityWarning,
				Code:      CodeTrailingWhitespace,
				Message:   "trailing whitespace",
			})
		}
	}
	return diags
}

func conflictMarker(line string) string {
	for _, marker := range []string{"<<<<<<< ", ">>>>>>> ", "======="} {
		if marker == "=======" {
			if line == marker {
				return marker
			}
			continue
		}
		if strings.HasPrefix(line, marker) {
			return strings.TrimSuffix(marker, " ")
		}
	}
	return ""
}
