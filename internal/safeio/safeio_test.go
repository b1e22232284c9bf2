package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "PGMA.cbl")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.SafeReadFile(p); err != nil {
		t.Fatalf("SafeReadFile absolute: %v", err)
	}
	rel, err := fs.Rel(p)
	if err != nil || rel != "PGMA.cbl" {
		t.Fatalf("Rel = %q, %v", rel, err)
	}
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.SafeReadFile("../etc/passwd"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
}

func TestSafeFSRejectsDirectoryRead(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "copy"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.SafeReadFile("copy"); !errors.Is(err, ErrIsDir) {
		t.Fatalf("expected ErrIsDir, got %v", err)
	}
}

func TestReadTextDecodesLatin1(t *testing.T) {
	dir := t.TempDir()
	// "CAFÉ" in ISO-8859-1
	if err := os.WriteFile(filepath.Join(dir, "a.cbl"), []byte{'C', 'A', 'F', 0xC9}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	text, err := fs.ReadText("a.cbl", "latin-1")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if text != "CAFÉ" {
		t.Fatalf("got %q", text)
	}

	back, err := Encode(text, "latin-1")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(back) != 4 || back[3] != 0xC9 {
		t.Fatalf("Encode = %v", back)
	}
}

func TestDecodeUnknownEncoding(t *testing.T) {
	if _, err := Decode([]byte("x"), "klingon"); err == nil {
		t.Fatalf("expected error")
	}
}
