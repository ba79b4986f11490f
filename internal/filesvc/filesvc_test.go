package filesvc

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListSourceFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.ems"))
	touch(t, filepath.Join(root, "b.out"))
	touch(t, filepath.Join(root, "a.EMBER"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.ems"))
	touch(t, filepath.Join(root, ".hidden", "d.ems"))

	flat, err := ListSourceFiles(root, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(flat) != 2 || flat[0].Name != "a.EMBER" || flat[1].Name != "b.ems" {
		t.Fatalf("unexpected flat listing %+v", flat)
	}
	if flat[0].Expect != "" || flat[1].Expect != filepath.Join(root, "b.out") {
		t.Fatalf("unexpected expectations %+v", flat)
	}

	deep, err := ListSourceFiles(root, true)
	if err != nil {
		t.Fatalf("list recursive: %v", err)
	}
	if len(deep) != 3 || deep[2].Name != filepath.Join("sub", "c.ems") {
		t.Fatalf("unexpected recursive listing %+v", deep)
	}
}

func TestListSourceFilesMissingRoot(t *testing.T) {
	if _, err := ListSourceFiles(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpectPath(t *testing.T) {
	if got := ExpectPath(filepath.Join("x", "main.ems")); got != filepath.Join("x", "main.out") {
		t.Fatalf("unexpected path %q", got)
	}
}
