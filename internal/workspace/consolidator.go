// Package workspace consolidates bursts of heterogeneous change
// notifications (editor open/change/close events and filesystem-watch
// notifications) into one consistent per-path view of file contents, and
// commits that view to the typechecking engine as a single epoch-tagged
// batch.
//
// Precedence: editor buffers are the freshest source of truth while a file
// is open; filesystem updates exist to catch out-of-editor changes and must
// never clobber unsaved edits.
package workspace

import (
	"strings"

	"rill/internal/analysis"
	"rill/internal/source"
)

// FileReader reads workspace files from disk. A missing file must surface an
// error satisfying errors.Is(err, os.ErrNotExist); the consolidator maps it
// to empty contents.
type FileReader interface {
	ReadFile(path string) (string, error)
}

// OpenFiles reports which paths the editor currently has open. The set is
// owned by the caller and must only be updated between batches, never while
// a batch is in flight.
type OpenFiles interface {
	Contains(path string) bool
}

// Typechecker consumes ownership of a snapshot together with a file-update
// batch and produces the next snapshot.
type Typechecker interface {
	Run(snap *analysis.Snapshot, updates FileUpdates) TypecheckRun
}

// FileUpdates is one atomically-committed batch of file changes.
type FileUpdates struct {
	// Epoch identifies the batch's position in the message stream. It is
	// supplied by the caller and carried through opaquely.
	Epoch uint64
	// Files holds exactly one fully-materialized snapshot per changed path.
	Files []*source.File
	// OpenedPaths lists paths that transitioned closed->open this batch.
	OpenedPaths []string
	// ClosedPaths lists paths that transitioned open->closed this batch.
	ClosedPaths []string
}

// TypecheckRun is the outcome of committing a batch. On the no-op path
// Updates is nil and Snapshot is the input snapshot, unchanged.
type TypecheckRun struct {
	Snapshot    *analysis.Snapshot
	Updates     *FileUpdates
	Diagnostics []analysis.Diagnostic
}

// Options configures a Consolidator.
type Options struct {
	// RootURI and RootPath identify the workspace. Editor edits whose URI
	// does not start with RootURI are dropped.
	RootURI  string
	RootPath string
	// Ignore patterns, in the matcher's absolute/relative convention.
	AbsoluteIgnorePatterns []string
	RelativeIgnorePatterns []string

	Reader      FileReader
	OpenFiles   OpenFiles
	Typechecker Typechecker

	// Logf, when set, receives trace output for degraded conditions
	// (unreadable files, clamped edit ranges).
	Logf func(format string, args ...any)
}

// Consolidator folds inbound edits into per-batch pending updates and
// commits them. It holds no per-batch state; a single value serves the whole
// session and every Handle call is one complete batch.
type Consolidator struct {
	rootURI   string
	rootPath  string
	absIgnore []string
	relIgnore []string
	reader    FileReader
	open      OpenFiles
	typecheck Typechecker
	logf      func(format string, args ...any)
}

// New constructs a Consolidator.
func New(opts Options) *Consolidator {
	return &Consolidator{
		rootURI:   strings.TrimSuffix(opts.RootURI, "/"),
		rootPath:  opts.RootPath,
		absIgnore: opts.AbsoluteIgnorePatterns,
		relIgnore: opts.RelativeIgnorePatterns,
		reader:    opts.Reader,
		open:      opts.OpenFiles,
		typecheck: opts.Typechecker,
		logf:      opts.Logf,
	}
}

// HandleEdits folds every edit, in list order, into one pending-update map
// and commits the result exactly once. Later edits for the same path observe
// and override earlier ones.
func (c *Consolidator) HandleEdits(snap *analysis.Snapshot, epoch uint64, edits []Edit) TypecheckRun {
	updates := make(pendingUpdates)
	for _, edit := range edits {
		switch edit.Kind {
		case EditorOpen:
			c.preprocessOpen(updates, edit)
		case EditorChange:
			c.preprocessChange(updates, snap, edit)
		case EditorClose:
			c.preprocessClose(updates, edit)
		case FileSystem:
			c.preprocessFileSystem(updates, edit)
		}
	}
	return c.commit(snap, epoch, updates)
}

// HandleOpen commits a single editor-open edit.
func (c *Consolidator) HandleOpen(snap *analysis.Snapshot, epoch uint64, uri, text string) TypecheckRun {
	return c.HandleEdits(snap, epoch, []Edit{OpenEdit(uri, text)})
}

// HandleChange commits a single editor-change edit.
func (c *Consolidator) HandleChange(snap *analysis.Snapshot, epoch uint64, uri string, changes []ContentChange) TypecheckRun {
	return c.HandleEdits(snap, epoch, []Edit{ChangeEdit(uri, changes)})
}

// HandleClose commits a single editor-close edit.
func (c *Consolidator) HandleClose(snap *analysis.Snapshot, epoch uint64, uri string) TypecheckRun {
	return c.HandleEdits(snap, epoch, []Edit{CloseEdit(uri)})
}

// HandleFileSystem commits a single filesystem-watch edit.
func (c *Consolidator) HandleFileSystem(snap *analysis.Snapshot, epoch uint64, paths []string) TypecheckRun {
	return c.HandleEdits(snap, epoch, []Edit{FileSystemEdit(paths...)})
}
