// Package analysis holds the analyzer's committed view of the workspace:
// the global snapshot of all known file contents and the diagnostics
// produced for them.
package analysis

import "rill/internal/source"

// Snapshot is the analyzer's complete view of workspace file contents at a
// point in time. A snapshot is owned by exactly one holder: the consolidation
// layer takes ownership of the current snapshot and the typechecking engine
// returns the next one. Holders never mutate a snapshot they handed off.
type Snapshot struct {
	Epoch       uint64
	Files       map[string]*source.File
	Diagnostics map[string][]Diagnostic
}

// NewSnapshot returns an empty snapshot at epoch zero.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Files:       make(map[string]*source.File),
		Diagnostics: make(map[string][]Diagnostic),
	}
}

// FindByPath returns the last committed contents for a normalized path.
func (s *Snapshot) FindByPath(path string) (*source.File, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.Files[path]
	return f, ok
}

// Clone returns a snapshot sharing file records but with fresh maps, so the
// engine can produce a successor without touching the original.
func (s *Snapshot) Clone() *Snapshot {
	next := NewSnapshot()
	if s == nil {
		return next
	}
	next.Epoch = s.Epoch
	for path, f := range s.Files {
		next.Files[path] = f
	}
	for path, diags := range s.Diagnostics {
		next.Diagnostics[path] = diags
	}
	return next
}
