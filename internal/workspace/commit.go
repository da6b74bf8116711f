package workspace

import (
	"sort"

	"rill/internal/analysis"
	"rill/internal/source"
)

// commit turns the finished pending-update map into an epoch-tagged batch
// and hands it, together with snapshot ownership, to the typechecking
// engine. An empty map short-circuits: the snapshot is carried through
// unchanged and no typecheck runs.
func (c *Consolidator) commit(snap *analysis.Snapshot, epoch uint64, updates pendingUpdates) TypecheckRun {
	if len(updates) == 0 {
		return TypecheckRun{Snapshot: snap}
	}

	paths := make([]string, 0, len(updates))
	for path := range updates {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	batch := FileUpdates{
		Epoch: epoch,
		Files: make([]*source.File, 0, len(paths)),
	}
	for _, path := range paths {
		entry := updates[path]
		batch.Files = append(batch.Files, source.NewFile(path, []byte(entry.contents), 0))
		if entry.newlyOpened {
			batch.OpenedPaths = append(batch.OpenedPaths, path)
		}
		if entry.newlyClosed {
			batch.ClosedPaths = append(batch.ClosedPaths, path)
		}
	}
	return c.typecheck.Run(snap, batch)
}
