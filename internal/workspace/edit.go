package workspace

// EditKind discriminates the closed set of inbound edit variants.
type EditKind uint8

const (
	// EditorOpen signals the editor opened a file and supplies its full text.
	EditorOpen EditKind = iota
	// EditorChange signals incremental or full-document edits to an open file.
	EditorChange
	// EditorClose signals the editor closed a file; disk contents take over.
	EditorClose
	// FileSystem is a watch notification listing changed on-disk paths.
	FileSystem
)

// Position is a 0-based position in the LSP wire convention.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span in a document.
type Range struct {
	Start Position
	End   Position
}

// ContentChange is one sub-edit of an editor change event. A nil Range means
// the text replaces the whole document.
type ContentChange struct {
	Range *Range
	Text  string
}

// Edit is a single inbound workspace change notification. Which fields are
// populated depends on Kind.
type Edit struct {
	Kind    EditKind
	URI     string          // editor kinds: target document
	Text    string          // EditorOpen: full document text
	Changes []ContentChange // EditorChange
	Paths   []string        // FileSystem: changed local paths, absolute or root-relative
}

// OpenEdit builds an editor-open edit.
func OpenEdit(uri, text string) Edit {
	return Edit{Kind: EditorOpen, URI: uri, Text: text}
}

// ChangeEdit builds an editor-change edit.
func ChangeEdit(uri string, changes []ContentChange) Edit {
	return Edit{Kind: EditorChange, URI: uri, Changes: changes}
}

// CloseEdit builds an editor-close edit.
func CloseEdit(uri string) Edit {
	return Edit{Kind: EditorClose, URI: uri}
}

// FileSystemEdit builds a filesystem-watch edit for the given paths.
func FileSystemEdit(paths ...string) Edit {
	return Edit{Kind: FileSystem, Paths: paths}
}
