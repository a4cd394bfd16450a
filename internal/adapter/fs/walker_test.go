package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestWalkIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt")
	writeFile(t, dir, "b.pdf")
	writeFile(t, dir, "c.bin")

	w := NewWalker([]string{"**/*.txt", "**/*.pdf"}, nil)
	files, err := w.Walk(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", names(files))
	}
}

func TestWalkExcludesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt")
	writeFile(t, dir, "tmp/skip.txt")

	w := NewWalker(nil, []string{"tmp/**"})
	files, err := w.Walk(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %v", names(files))
	}
}

func TestWalkDefaultsToEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.txt")
	writeFile(t, dir, "sub/y.csv")

	w := NewWalker(nil, nil)
	files, err := w.Walk(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", names(files))
	}
}
