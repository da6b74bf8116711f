package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rill/internal/analysis"
	"rill/internal/fsops"
	"rill/internal/project"
	"rill/internal/typecheck"
	"rill/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior. Zero fields fall back to the
// workspace manifest and built-in defaults.
type ServerOptions struct {
	Debounce       time.Duration
	Typechecker    workspace.Typechecker
	MaxDiagnostics int
	Trace          bool
}

// Server handles stdio JSON-RPC for the rill analyzer.
//
// Inbound editor and watcher notifications are translated into workspace
// edits and queued; a debounce timer flushes the queue as one batch through
// the consolidation layer. The open-files set and the snapshot are only
// touched between batches, under batchMu.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	pending           []workspace.Edit
	msgCount          uint64
	pendingEpoch      uint64
	debounceTimer     *time.Timer
	shutdownRequested bool
	workspaceRoot     string
	rootURI           string
	consolidator      *workspace.Consolidator
	trace             bool

	batchMu   sync.Mutex
	snapshot  *analysis.Snapshot
	openFiles openFileSet
	published map[string]struct{}

	debounce       time.Duration
	maxDiagnostics int
	typechecker    workspace.Typechecker
}

// openFileSet is the process-wide record of which paths the editor has open.
// It implements workspace.OpenFiles and is mutated only between batches.
type openFileSet map[string]struct{}

func (s openFileSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		snapshot:       analysis.NewSnapshot(),
		openFiles:      make(openFileSet),
		published:      make(map[string]struct{}),
		debounce:       opts.Debounce,
		maxDiagnostics: opts.MaxDiagnostics,
		typechecker:    opts.Typechecker,
		trace:          opts.Trace,
	}
}

// Run serves LSP requests until shutdown or EOF.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		s.mu.Lock()
		s.msgCount++
		s.mu.Unlock()
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didSave":
		// Saves reach us through the filesystem watch; the editor buffer is
		// already authoritative for open files.
		return nil
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	rootURI := params.RootURI
	root := ""
	if rootURI != "" {
		root = workspace.URIToLocalPath(rootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		rootURI = params.WorkspaceFolders[0].URI
		root = workspace.URIToLocalPath(rootURI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	if rootURI == "" && root != "" {
		rootURI = workspace.PathToURI(root)
	}

	cfg := s.loadConfig(root)
	s.applyConfig(cfg)

	engine := s.typechecker
	if engine == nil {
		var cache *typecheck.Cache
		if c, err := typecheck.OpenCache("rill"); err != nil {
			s.logf("check cache unavailable: %v", err)
		} else {
			cache = c
		}
		engine = typecheck.NewEngine(typecheck.EngineOptions{
			Cache: cache,
			Logf:  s.tracef,
		})
	}

	cons := workspace.New(workspace.Options{
		RootURI:                rootURI,
		RootPath:               root,
		AbsoluteIgnorePatterns: cfg.Workspace.IgnoreAbsolute,
		RelativeIgnorePatterns: cfg.Workspace.Ignore,
		Reader:                 fsops.DiskReader{},
		OpenFiles:              s.openFiles,
		Typechecker:            engine,
		Logf:                   s.tracef,
	})

	s.mu.Lock()
	s.workspaceRoot = root
	s.rootURI = strings.TrimSuffix(rootURI, "/")
	s.consolidator = cons
	s.typechecker = engine
	s.mu.Unlock()

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
			},
		},
	}
	return s.sendResponse(msg.ID, result)
}

// loadConfig reads the workspace manifest at root, if any.
func (s *Server) loadConfig(root string) project.Config {
	if root == "" {
		return project.Config{}
	}
	manifest, ok, err := project.LoadManifest(root)
	if err != nil {
		s.logf("manifest: %v", err)
		return project.Config{}
	}
	if !ok {
		return project.Config{}
	}
	return manifest.Config
}

// applyConfig merges manifest settings under any explicit ServerOptions.
func (s *Server) applyConfig(cfg project.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce <= 0 {
		if cfg.LSP.DebounceMS > 0 {
			s.debounce = time.Duration(cfg.LSP.DebounceMS) * time.Millisecond
		} else {
			s.debounce = 300 * time.Millisecond
		}
	}
	if s.maxDiagnostics <= 0 {
		if cfg.LSP.MaxDiagnostics > 0 {
			s.maxDiagnostics = cfg.LSP.MaxDiagnostics
		} else {
			s.maxDiagnostics = 100
		}
	}
	if cfg.LSP.Trace {
		s.trace = true
	}
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	s.queueEdit(workspace.OpenEdit(params.TextDocument.URI, params.TextDocument.Text))
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	changes := make([]workspace.ContentChange, 0, len(params.ContentChanges))
	for _, change := range params.ContentChanges {
		changes = append(changes, contentChange(change))
	}
	s.queueEdit(workspace.ChangeEdit(params.TextDocument.URI, changes))
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	s.queueEdit(workspace.CloseEdit(params.TextDocument.URI))
	return nil
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params didChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	s.mu.Lock()
	rootURI := s.rootURI
	s.mu.Unlock()
	paths := make([]string, 0, len(params.Changes))
	for _, change := range params.Changes {
		if rootURI != "" && !strings.HasPrefix(change.URI, rootURI) {
			continue
		}
		if path := workspace.URIToLocalPath(change.URI); path != "" {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	s.queueEdit(workspace.FileSystemEdit(paths...))
	return nil
}

func contentChange(event textDocumentContentChangeEvent) workspace.ContentChange {
	change := workspace.ContentChange{Text: event.Text}
	if event.Range != nil {
		change.Range = &workspace.Range{
			Start: workspace.Position{Line: event.Range.Start.Line, Character: event.Range.Start.Character},
			End:   workspace.Position{Line: event.Range.End.Line, Character: event.Range.End.Character},
		}
	}
	return change
}

// queueEdit appends an edit to the pending batch and restarts the debounce
// timer. The epoch of the eventual batch is the message count at the time of
// its newest edit.
func (s *Server) queueEdit(edit workspace.Edit) {
	s.mu.Lock()
	s.pending = append(s.pending, edit)
	s.pendingEpoch = s.msgCount
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	delay := s.debounce
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	s.debounceTimer = time.AfterFunc(delay, s.flushBatch)
	s.mu.Unlock()
}

// flushBatch commits all queued edits as one batch and applies the outcome:
// the successor snapshot, open-files transitions, and fresh diagnostics.
func (s *Server) flushBatch() {
	s.mu.Lock()
	edits := s.pending
	epoch := s.pendingEpoch
	s.pending = nil
	cons := s.consolidator
	s.mu.Unlock()
	if len(edits) == 0 || cons == nil {
		return
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	run := cons.HandleEdits(s.snapshot, epoch, edits)
	s.snapshot = run.Snapshot
	if run.Updates == nil {
		s.tracef("batch epoch=%d: no updates", epoch)
		return
	}
	s.tracef("batch epoch=%d: files=%d opened=%d closed=%d diags=%d",
		epoch, len(run.Updates.Files), len(run.Updates.OpenedPaths), len(run.Updates.ClosedPaths), len(run.Diagnostics))
	for _, path := range run.Updates.OpenedPaths {
		s.openFiles[path] = struct{}{}
	}
	for _, path := range run.Updates.ClosedPaths {
		delete(s.openFiles, path)
	}
	s.publishBatch(run)
}

// publishBatch publishes diagnostics for every file the batch touched,
// clearing entries for files that came back clean.
func (s *Server) publishBatch(run workspace.TypecheckRun) {
	for _, f := range run.Updates.Files {
		uri := workspace.PathToURI(f.Path)
		if uri == "" {
			continue
		}
		list := diagnosticsToWire(run.Snapshot.Diagnostics[f.Path], s.maxDiagnostics)
		if len(list) == 0 {
			if _, ok := s.published[uri]; !ok {
				continue
			}
			delete(s.published, uri)
		} else {
			s.published[uri] = struct{}{}
		}
		if err := s.sendPublish(uri, list); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
	}
}

func diagnosticsToWire(diags []analysis.Diagnostic, limit int) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		if limit > 0 && len(out) >= limit {
			break
		}
		startLine := maxZero(d.StartLine - 1)
		startCol := maxZero(d.StartCol - 1)
		endLine := maxZero(d.EndLine - 1)
		endCol := maxZero(d.EndCol - 1)
		if d.EndLine == 0 && d.EndCol == 0 {
			endLine = startLine
			endCol = startCol
		}
		out = append(out, lspDiagnostic{
			Range: lspRange{
				Start: position{Line: startLine, Character: startCol},
				End:   position{Line: endLine, Character: endCol},
			},
			Severity: d.Severity,
			Code:     d.Code,
			Source:   "rill",
			Message:  d.Message,
		})
	}
	return out
}

func (s *Server) clearPublishedDiagnostics() {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	for uri := range s.published {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	s.published = make(map[string]struct{})
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}

func (s *Server) tracef(format string, args ...any) {
	s.mu.Lock()
	trace := s.trace
	s.mu.Unlock()
	if trace {
		s.logf(format, args...)
	}
}

func maxZero(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
