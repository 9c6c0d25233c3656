package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAddGame(t *testing.T) {
	p := New()
	p.AddGame(3, 3)
	p.AddGame(1, 2)

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", p.Len())
	}
	if s := p.Scores(); s[0] != 3 || s[1] != 1 {
		t.Errorf("Scores() = %v", s)
	}
	if a := p.Averages(); a[1] != 2 {
		t.Errorf("Averages() = %v", a)
	}

	// Returned slices are copies.
	p.Scores()[0] = 99
	if p.Scores()[0] != 3 {
		t.Error("Scores() should not expose internal state")
	}
}

func TestSaveGraphWritesPNG(t *testing.T) {
	p := New()
	for i := 0; i < 10; i++ {
		p.AddGame(i%4, float64(i)/2)
	}

	dir := t.TempDir()
	path, err := p.SaveGraph(dir)
	if err != nil {
		t.Fatalf("SaveGraph() failed: %v", err)
	}
	if path != filepath.Join(dir, GraphFile) {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("graph should be a PNG file")
	}
}

func TestSaveGraphEmpty(t *testing.T) {
	if _, err := New().SaveGraph(t.TempDir()); err != nil {
		t.Errorf("an empty graph should still render: %v", err)
	}
}

func TestSaveGraphMissingDir(t *testing.T) {
	p := New()
	p.AddGame(1, 1)
	if _, err := p.SaveGraph(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("saving into a missing folder should fail")
	}
}
