package workspace

import (
	"path/filepath"
	"strings"

	"rill/internal/analysis"
	"rill/internal/fsops"
	"rill/internal/source"
)

// pendingUpdate is the consolidated state of one path within a batch.
// contents is always a fully-materialized buffer, never a diff. At most one
// of newlyOpened/newlyClosed is set.
type pendingUpdate struct {
	contents    string
	newlyOpened bool
	newlyClosed bool
}

// pendingUpdates maps normalized local path -> pending update, built fresh
// per batch and discarded after commit.
type pendingUpdates map[string]*pendingUpdate

// preprocessOpen replaces any pending state for the path wholesale: an open
// event is authoritative and discards earlier edits in the batch.
func (c *Consolidator) preprocessOpen(updates pendingUpdates, edit Edit) {
	path, ok := c.editorLocalPath(edit.URI)
	if !ok {
		return
	}
	updates[path] = &pendingUpdate{contents: edit.Text, newlyOpened: true}
}

// preprocessChange splices the event's sub-edits into the path's current
// contents: the pending record if one exists, else the last committed
// snapshot contents, else an empty buffer. Open/close flags already on the
// record are preserved.
func (c *Consolidator) preprocessChange(updates pendingUpdates, snap *analysis.Snapshot, edit Edit) {
	path, ok := c.editorLocalPath(edit.URI)
	if !ok {
		return
	}
	text := c.seedContents(updates, snap, path)
	text = c.applyContentChanges(path, text, edit.Changes)
	entry := updates[path]
	if entry == nil {
		entry = &pendingUpdate{}
		updates[path] = entry
	}
	entry.contents = text
}

// preprocessClose replaces any pending state for the path with the on-disk
// contents. A missing file reads as empty: the watch channel upstream does
// not distinguish deletion from other removal events.
func (c *Consolidator) preprocessClose(updates pendingUpdates, edit Edit) {
	path, ok := c.editorLocalPath(edit.URI)
	if !ok {
		return
	}
	updates[path] = &pendingUpdate{contents: c.readFile(path), newlyClosed: true}
}

// preprocessFileSystem refreshes each listed path from disk unless the
// editor currently owns it. Flags on an existing record are left untouched.
func (c *Consolidator) preprocessFileSystem(updates pendingUpdates, edit Edit) {
	for _, raw := range edit.Paths {
		path, ok := c.watchLocalPath(raw)
		if !ok {
			continue
		}
		if c.openInEditor(updates, path) {
			continue
		}
		entry := updates[path]
		if entry == nil {
			entry = &pendingUpdate{}
			updates[path] = entry
		}
		entry.contents = c.readFile(path)
	}
}

// openInEditor reports whether editor state should win over the filesystem
// for path: this batch opened it, or the editor's open set contains it and
// this batch has not closed it.
func (c *Consolidator) openInEditor(updates pendingUpdates, path string) bool {
	entry := updates[path]
	if entry != nil && entry.newlyOpened {
		return true
	}
	if c.open == nil || !c.open.Contains(path) {
		return false
	}
	return entry == nil || !entry.newlyClosed
}

// seedContents returns the buffer a change event starts from.
func (c *Consolidator) seedContents(updates pendingUpdates, snap *analysis.Snapshot, path string) string {
	if entry, ok := updates[path]; ok {
		return entry.contents
	}
	if f, ok := snap.FindByPath(path); ok {
		return string(f.Content)
	}
	return ""
}

// applyContentChanges applies sub-edits in sequence, each against the
// cumulative result of the previous ones. A sub-edit without a range
// replaces the whole document. Range endpoints arrive 0-based (LSP) and are
// shifted to the resolver's 1-based convention; endpoints that do not
// resolve to a valid offset are clamped to the nearest valid one.
func (c *Consolidator) applyContentChanges(path, text string, changes []ContentChange) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		content := []byte(text)
		lineIdx := source.BuildLineIndex(content)
		start, startOK := source.Offset(content, lineIdx, positionToLineCol(change.Range.Start))
		end, endOK := source.Offset(content, lineIdx, positionToLineCol(change.Range.End))
		if (!startOK || !endOK) && c.logf != nil {
			c.logf("change range clamped: path=%s start=%d:%d end=%d:%d",
				path, change.Range.Start.Line, change.Range.Start.Character,
				change.Range.End.Line, change.Range.End.Character)
		}
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func positionToLineCol(pos Position) source.LineCol {
	line := pos.Line
	if line < 0 {
		line = 0
	}
	character := pos.Character
	if character < 0 {
		character = 0
	}
	return source.LineCol{Line: uint32(line) + 1, Col: uint32(character) + 1}
}

// readFile returns the on-disk contents of path, treating an unreadable
// file as empty. This is the golden path for deleted files, not an error.
func (c *Consolidator) readFile(path string) string {
	contents, err := c.reader.ReadFile(path)
	if err != nil {
		if c.logf != nil {
			c.logf("read %s: %v", path, err)
		}
		return ""
	}
	return contents
}

// editorLocalPath resolves an editor edit's target URI to a normalized local
// path, dropping the edit when the URI lies outside the workspace root or
// the path is ignored.
func (c *Consolidator) editorLocalPath(uri string) (string, bool) {
	if c.rootURI != "" && !strings.HasPrefix(uri, c.rootURI) {
		return "", false
	}
	path := URIToLocalPath(uri)
	if path == "" {
		return "", false
	}
	if fsops.IsFileIgnored(c.rootPath, path, c.absIgnore, c.relIgnore) {
		return "", false
	}
	return path, true
}

// watchLocalPath resolves a filesystem-watch path, which may be absolute or
// workspace-root-relative, applying the same ignore filter as editor edits.
func (c *Consolidator) watchLocalPath(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.rootPath, path)
	}
	path = filepath.Clean(path)
	if fsops.IsFileIgnored(c.rootPath, path, c.absIgnore, c.relIgnore) {
		return "", false
	}
	return path, true
}
