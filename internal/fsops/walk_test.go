package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWalkFilesSkipsIgnoredAndHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "src", "b.txt"), "b")
	writeFile(t, filepath.Join(root, "vendor", "c.txt"), "c")
	writeFile(t, filepath.Join(root, "src", "node_modules", "d.js"), "d")
	writeFile(t, filepath.Join(root, ".git", "config"), "x")

	files, err := WalkFiles(root, []string{"/vendor"}, []string{"node_modules"})
	if err != nil {
		t.Fatalf("WalkFiles: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "src", "b.txt"),
	}
	if len(files) != len(want) {
		t.Fatalf("unexpected files: %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestDiskReaderNormalizes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "\xEF\xBB\xBFone\r\ntwo\r\n")

	got, err := DiskReader{}.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "one\ntwo\n" {
		t.Fatalf("unexpected contents: %q", got)
	}
}

func TestDiskReaderMissingFile(t *testing.T) {
	_, err := DiskReader{}.ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
