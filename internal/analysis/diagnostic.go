package analysis

// Diagnostic severities, matching LSP conventions.
const (
	SeverityError   = 1
	SeverityWarning = 2
)

// Diagnostic represents a single finding for a file.
// Line/column fields are 1-based.
type Diagnostic struct {
	Path      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Severity  int
	Code      string
	Message   string
}
