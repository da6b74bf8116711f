package workspace

import (
	"os"
	"testing"

	"rill/internal/analysis"
	"rill/internal/source"
)

type fakeReader map[string]string

func (r fakeReader) ReadFile(path string) (string, error) {
	text, ok := r[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return text, nil
}

type fakeOpenSet map[string]struct{}

func (s fakeOpenSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

type recordingEngine struct {
	runs []FileUpdates
}

func (e *recordingEngine) Run(snap *analysis.Snapshot, updates FileUpdates) TypecheckRun {
	e.runs = append(e.runs, updates)
	return TypecheckRun{Snapshot: snap, Updates: &e.runs[len(e.runs)-1]}
}

type testEnv struct {
	cons   *Consolidator
	engine *recordingEngine
	reader fakeReader
	open   fakeOpenSet
}

func newTestEnv(relIgnore []string) *testEnv {
	env := &testEnv{
		engine: &recordingEngine{},
		reader: make(fakeReader),
		open:   make(fakeOpenSet),
	}
	env.cons = New(Options{
		RootURI:                "file:///ws",
		RootPath:               "/ws",
		RelativeIgnorePatterns: relIgnore,
		Reader:                 env.reader,
		OpenFiles:              env.open,
		Typechecker:            env.engine,
	})
	return env
}

func batchFile(t *testing.T, updates *FileUpdates, path string) *source.File {
	t.Helper()
	if updates == nil {
		t.Fatalf("expected a committed batch")
	}
	for _, f := range updates.Files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no batch entry for %s; have %d files", path, len(updates.Files))
	return nil
}

func TestIgnoredEditsProduceNoBatch(t *testing.T) {
	env := newTestEnv([]string{"vendor"})
	snap := analysis.NewSnapshot()

	run := env.cons.HandleEdits(snap, 3, []Edit{
		OpenEdit("file:///ws/vendor/a.txt", "text"),
		ChangeEdit("file:///ws/vendor/a.txt", []ContentChange{{Text: "other"}}),
		FileSystemEdit("vendor/b.txt"),
		CloseEdit("file:///elsewhere/c.txt"),
	})

	if run.Snapshot != snap {
		t.Fatalf("expected the input snapshot to be carried through unchanged")
	}
	if run.Updates != nil {
		t.Fatalf("expected no batch, got %+v", run.Updates)
	}
	if len(env.engine.runs) != 0 {
		t.Fatalf("typechecker should not run for an all-ignored batch")
	}
}

func TestFileSystemEditIdempotent(t *testing.T) {
	env := newTestEnv(nil)
	env.reader["/ws/a.txt"] = "on disk"

	first := env.cons.HandleFileSystem(analysis.NewSnapshot(), 1, []string{"a.txt"})
	second := env.cons.HandleEdits(first.Snapshot, 2, []Edit{
		FileSystemEdit("a.txt"),
		FileSystemEdit("a.txt"),
	})

	for _, run := range []TypecheckRun{first, second} {
		f := batchFile(t, run.Updates, "/ws/a.txt")
		if string(f.Content) != "on disk" {
			t.Fatalf("unexpected contents: %q", f.Content)
		}
		if len(run.Updates.OpenedPaths) != 0 || len(run.Updates.ClosedPaths) != 0 {
			t.Fatalf("filesystem edit must not set open/close flags")
		}
	}
}

func TestEditorContentsSupersedeFileSystem(t *testing.T) {
	for _, changeFirst := range []bool{true, false} {
		env := newTestEnv(nil)
		env.open["/ws/a.txt"] = struct{}{}
		env.reader["/ws/a.txt"] = "disk version"

		snap := analysis.NewSnapshot()
		snap.Files["/ws/a.txt"] = source.NewFile("/ws/a.txt", []byte("old"), 0)

		edits := []Edit{
			ChangeEdit("file:///ws/a.txt", []ContentChange{{Text: "edited"}}),
			FileSystemEdit("a.txt"),
		}
		if !changeFirst {
			edits[0], edits[1] = edits[1], edits[0]
		}

		run := env.cons.HandleEdits(snap, 1, edits)
		f := batchFile(t, run.Updates, "/ws/a.txt")
		if string(f.Content) != "edited" {
			t.Fatalf("changeFirst=%v: filesystem clobbered editor contents: %q", changeFirst, f.Content)
		}
	}
}

func TestSequentialRangeSplicing(t *testing.T) {
	env := newTestEnv(nil)
	snap := analysis.NewSnapshot()
	snap.Files["/ws/a.txt"] = source.NewFile("/ws/a.txt", []byte("hello world"), 0)

	run := env.cons.HandleChange(snap, 1, "file:///ws/a.txt", []ContentChange{
		{
			Range: &Range{Start: Position{Line: 0, Character: 6}, End: Position{Line: 0, Character: 11}},
			Text:  "there",
		},
		{
			Range: &Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 5}},
			Text:  "hi",
		},
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "hi there" {
		t.Fatalf("unexpected splice result: %q", f.Content)
	}
}

func TestFullDocumentReplaceDiscardsPriorEdits(t *testing.T) {
	env := newTestEnv(nil)
	snap := analysis.NewSnapshot()
	snap.Files["/ws/a.txt"] = source.NewFile("/ws/a.txt", []byte("seed"), 0)

	run := env.cons.HandleChange(snap, 1, "file:///ws/a.txt", []ContentChange{
		{
			Range: &Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 4}},
			Text:  "spliced",
		},
		{Text: "fresh"},
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "fresh" {
		t.Fatalf("full-document replace did not win: %q", f.Content)
	}
}

func TestOpenThenCloseSameBatch(t *testing.T) {
	env := newTestEnv(nil)
	env.reader["/ws/a.txt"] = "disk text"

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 1, []Edit{
		OpenEdit("file:///ws/a.txt", "editor text"),
		CloseEdit("file:///ws/a.txt"),
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "disk text" {
		t.Fatalf("close should take disk contents, got %q", f.Content)
	}
	if len(run.Updates.OpenedPaths) != 0 {
		t.Fatalf("open flag must be discarded by the later close")
	}
	if len(run.Updates.ClosedPaths) != 1 || run.Updates.ClosedPaths[0] != "/ws/a.txt" {
		t.Fatalf("unexpected closed paths: %v", run.Updates.ClosedPaths)
	}
}

func TestCloseMissingFileReadsEmpty(t *testing.T) {
	env := newTestEnv(nil)

	run := env.cons.HandleClose(analysis.NewSnapshot(), 1, "file:///ws/gone.txt")

	f := batchFile(t, run.Updates, "/ws/gone.txt")
	if len(f.Content) != 0 {
		t.Fatalf("missing file should read as empty, got %q", f.Content)
	}
}

func TestChangePreservesOpenFlag(t *testing.T) {
	env := newTestEnv(nil)

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 1, []Edit{
		OpenEdit("file:///ws/a.txt", "v1"),
		ChangeEdit("file:///ws/a.txt", []ContentChange{{Text: "v2"}}),
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "v2" {
		t.Fatalf("change after open should update contents, got %q", f.Content)
	}
	if len(run.Updates.OpenedPaths) != 1 || run.Updates.OpenedPaths[0] != "/ws/a.txt" {
		t.Fatalf("change must preserve the open flag: %v", run.Updates.OpenedPaths)
	}
}

func TestOpenReplacesPendingEditsWholesale(t *testing.T) {
	env := newTestEnv(nil)

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 1, []Edit{
		ChangeEdit("file:///ws/a.txt", []ContentChange{{Text: "stale"}}),
		OpenEdit("file:///ws/a.txt", "authoritative"),
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "authoritative" {
		t.Fatalf("open did not discard pending edits: %q", f.Content)
	}
}

func TestFileSystemSkipsNewlyOpened(t *testing.T) {
	env := newTestEnv(nil)
	env.reader["/ws/a.txt"] = "disk"

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 1, []Edit{
		OpenEdit("file:///ws/a.txt", "buffer"),
		FileSystemEdit("a.txt"),
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "buffer" {
		t.Fatalf("filesystem edit overrode a newly opened buffer: %q", f.Content)
	}
}

func TestFileSystemAppliesAfterCloseInBatch(t *testing.T) {
	env := newTestEnv(nil)
	env.open["/ws/a.txt"] = struct{}{}
	env.reader["/ws/a.txt"] = "disk"

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 1, []Edit{
		CloseEdit("file:///ws/a.txt"),
		FileSystemEdit("a.txt"),
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "disk" {
		t.Fatalf("filesystem update should apply once the batch closed the file: %q", f.Content)
	}
	if len(run.Updates.ClosedPaths) != 1 {
		t.Fatalf("filesystem edit must not clear the close flag: %v", run.Updates.ClosedPaths)
	}
}

func TestBatchEmitsOneSnapshotPerPath(t *testing.T) {
	env := newTestEnv(nil)
	env.reader["/ws/b.txt"] = "bee"

	run := env.cons.HandleEdits(analysis.NewSnapshot(), 42, []Edit{
		OpenEdit("file:///ws/a.txt", "ay"),
		FileSystemEdit("b.txt"),
	})

	if run.Updates == nil || run.Updates.Epoch != 42 {
		t.Fatalf("batch should carry the supplied epoch, got %+v", run.Updates)
	}
	if len(run.Updates.Files) != 2 {
		t.Fatalf("expected exactly two snapshots, got %d", len(run.Updates.Files))
	}
	if run.Updates.Files[0].Path != "/ws/a.txt" || run.Updates.Files[1].Path != "/ws/b.txt" {
		t.Fatalf("unexpected batch order: %s, %s", run.Updates.Files[0].Path, run.Updates.Files[1].Path)
	}
	if len(run.Updates.OpenedPaths) != 1 || run.Updates.OpenedPaths[0] != "/ws/a.txt" {
		t.Fatalf("unexpected opened paths: %v", run.Updates.OpenedPaths)
	}
	if len(run.Updates.ClosedPaths) != 0 {
		t.Fatalf("unexpected closed paths: %v", run.Updates.ClosedPaths)
	}
}

func TestChangeSeedsEmptyForUnknownPath(t *testing.T) {
	env := newTestEnv(nil)

	run := env.cons.HandleChange(analysis.NewSnapshot(), 1, "file:///ws/new.txt", []ContentChange{
		{
			Range: &Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 0}},
			Text:  "inserted",
		},
	})

	f := batchFile(t, run.Updates, "/ws/new.txt")
	if string(f.Content) != "inserted" {
		t.Fatalf("unexpected seed behavior: %q", f.Content)
	}
}

func TestOutOfRangeEndpointsClamp(t *testing.T) {
	env := newTestEnv(nil)
	snap := analysis.NewSnapshot()
	snap.Files["/ws/a.txt"] = source.NewFile("/ws/a.txt", []byte("short"), 0)

	run := env.cons.HandleChange(snap, 1, "file:///ws/a.txt", []ContentChange{
		{
			Range: &Range{Start: Position{Line: 0, Character: 3}, End: Position{Line: 5, Character: 80}},
			Text:  "e!",
		},
	})

	f := batchFile(t, run.Updates, "/ws/a.txt")
	if string(f.Content) != "shoe!" {
		t.Fatalf("expected clamped splice, got %q", f.Content)
	}
}

func TestOutOfScopeURIDropped(t *testing.T) {
	env := newTestEnv(nil)

	run := env.cons.HandleOpen(analysis.NewSnapshot(), 1, "file:///other/a.txt", "text")

	if run.Updates != nil {
		t.Fatalf("edit outside the workspace root must be dropped")
	}
}
