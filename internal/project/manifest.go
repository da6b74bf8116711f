package project

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the parsed rill.toml manifest.
type Config struct {
	Package   PackageConfig   `toml:"package"`
	Workspace WorkspaceConfig `toml:"workspace"`
	LSP       LSPConfig       `toml:"lsp"`
}

// PackageConfig names the workspace.
type PackageConfig struct {
	Name string `toml:"name"`
}

// WorkspaceConfig controls which files the analyzer tracks.
type WorkspaceConfig struct {
	// Ignore holds relative patterns matching any path segment.
	Ignore []string `toml:"ignore"`
	// IgnoreAbsolute holds root-relative path prefixes.
	IgnoreAbsolute []string `toml:"ignore-absolute"`
}

// LSPConfig tunes the language server.
type LSPConfig struct {
	DebounceMS     int  `toml:"debounce-ms"`
	Trace          bool `toml:"trace"`
	MaxDiagnostics int  `toml:"max-diagnostics"`
}

// Manifest pairs a parsed config with where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// LoadConfig parses the manifest at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadManifest walks up from startDir and parses the nearest rill.toml.
// A missing manifest is not an error: ok is false and the zero Config
// applies.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}
