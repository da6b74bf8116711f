package typecheck

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"

	"rill/internal/analysis"
)

// Bump when the cachePayload format changes.
const cacheSchemaVersion uint16 = 1

// Cache memoizes check results per content hash on disk.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema      uint16
	Diagnostics []analysis.Diagnostic
}

// OpenCache initializes a cache at the standard user cache location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewCache(filepath.Join(base, app))
}

// NewCache initializes a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key xxh3.Uint128) string {
	raw := key.Bytes()
	return filepath.Join(c.dir, "checks", hex.EncodeToString(raw[:])+".mp")
}

// Put serializes diagnostics for the given content hash, replacing any
// previous entry atomically.
func (c *Cache) Put(key xxh3.Uint128, diags []analysis.Diagnostic) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	payload := cachePayload{Schema: cacheSchemaVersion, Diagnostics: diags}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the diagnostics cached for a content hash. A missing entry or a
// schema mismatch reports ok=false without error.
func (c *Cache) Get(key xxh3.Uint128) (diags []analysis.Diagnostic, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return payload.Diagnostics, true, nil
}
