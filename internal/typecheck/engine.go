// Package typecheck implements the engine side of the consolidation
// contract: it consumes a snapshot plus one file-update batch, produces the
// successor snapshot, and diagnoses every updated file.
package typecheck

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"rill/internal/analysis"
	"rill/internal/source"
	"rill/internal/workspace"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Jobs bounds concurrent file checks; defaults to GOMAXPROCS.
	Jobs int
	// Cache, when set, memoizes per-content check results on disk.
	Cache *Cache
	// Logf receives trace output for cache failures.
	Logf func(format string, args ...any)
}

// Engine is the reference typechecking engine.
type Engine struct {
	jobs  int
	cache *Cache
	logf  func(format string, args ...any)
}

// NewEngine constructs an Engine.
func NewEngine(opts EngineOptions) *Engine {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return &Engine{jobs: jobs, cache: opts.Cache, logf: opts.Logf}
}

// Run takes ownership of snap, applies the batch, and returns the next
// snapshot together with diagnostics for the updated files.
func (e *Engine) Run(snap *analysis.Snapshot, updates workspace.FileUpdates) workspace.TypecheckRun {
	next := snap.Clone()
	next.Epoch = updates.Epoch
	for _, f := range updates.Files {
		next.Files[f.Path] = f
	}

	results := e.checkFiles(updates.Files)

	var diags []analysis.Diagnostic
	for i, f := range updates.Files {
		if len(results[i]) == 0 {
			delete(next.Diagnostics, f.Path)
			continue
		}
		next.Diagnostics[f.Path] = results[i]
		diags = append(diags, results[i]...)
	}
	return workspace.TypecheckRun{Snapshot: next, Updates: &updates, Diagnostics: diags}
}

func (e *Engine) checkFiles(files []*source.File) [][]analysis.Diagnostic {
	results := make([][]analysis.Diagnostic, len(files))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(e.jobs)
	for i, f := range files {
		g.Go(func() error {
			results[i] = e.checkOne(f)
			return nil
		})
	}
	// Workers only record results; they never fail.
	_ = g.Wait()
	return results
}

func (e *Engine) checkOne(f *source.File) []analysis.Diagnostic {
	if e.cache != nil {
		if diags, ok, err := e.cache.Get(f.Hash); err != nil {
			if e.logf != nil {
				e.logf("check cache read: %v", err)
			}
		} else if ok {
			return rekeyDiagnostics(diags, f.Path)
		}
	}
	diags := CheckFile(f)
	if e.cache != nil {
		if err := e.cache.Put(f.Hash, diags); err != nil && e.logf != nil {
			e.logf("check cache write: %v", err)
		}
	}
	return diags
}

// rekeyDiagnostics rebinds cached diagnostics to the path being checked;
// cache entries are keyed by content, not location.
func rekeyDiagnostics(diags []analysis.Diagnostic, path string) []analysis.Diagnostic {
	for i := range diags {
		diags[i].Path = path
	}
	return diags
}
