package scan

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"cobolscope/internal/safeio"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func safeRoot(t *testing.T, root string) *safeio.SafeFS {
	t.Helper()
	fsys, err := safeio.NewSafeFS(root)
	if err != nil {
		t.Fatalf("safe fs: %v", err)
	}
	return fsys
}

func TestStream_FilesOnly(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.cbl", "root file")
	write(t, root, "dir1/b.cbl", "child file")
	write(t, root, "dir1/vendor/skip.cbl", "ignored vendor")
	write(t, root, "node_modules/x.cbl", "ignored nm")
	write(t, root, "deep/level2/c.cbl", "deep file")

	opts := Options{IgnoreDirs: []string{"node_modules", "vendor"}}

	ch, errCh := Stream(safeRoot(t, root), opts, true)
	var got []string
	for fv := range ch {
		if fv.IsDir {
			t.Fatalf("IsDir came even though filesOnly=true: %+v", fv)
		}
		got = append(got, fv.Path)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("scan error: %v", err)
	}

	sort.Strings(got)
	want := []string{
		"a.cbl",
		"deep/level2/c.cbl",
		"dir1/b.cbl",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestScan_IgnoresAndDepth(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.cbl", "root file")
	write(t, root, "dir1/b.cbl", "child file")
	write(t, root, "dir1/vendor/skip.cbl", "ignored vendor")
	write(t, root, "d/e/f.cbl", "deep")

	opts := Options{MaxDepth: 1, IgnoreDirs: []string{"vendor"}}

	var files, dirs []string
	err := ScanWithOptions(safeRoot(t, root), opts, func(fv FileVisit) {
		if fv.IsDir {
			dirs = append(dirs, fv.Path)
			return
		}
		files = append(files, fv.Path)
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if want := []string{"a.cbl"}; !slices.Equal(files, want) {
		t.Fatalf("files=%v want=%v", files, want)
	}
	if want := []string{"d", "dir1"}; !slices.Equal(dirs, want) {
		t.Fatalf("dirs=%v want=%v", dirs, want)
	}
}

func TestFilesWithExtensions(t *testing.T) {
	root := t.TempDir()
	write(t, root, "PGMA.CBL", "x")
	write(t, root, "batch/PGMB.cob", "x")
	write(t, root, "batch/readme.md", "x")
	write(t, root, "copy/WSBOOK.cpy", "x")

	got, err := FilesWithExtensions(safeRoot(t, root), []string{"cbl", ".COB"}, Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if want := []string{"PGMA.CBL", "batch/PGMB.cob"}; !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}

	got, err = FilesWithExtensions(safeRoot(t, root), []string{" "}, Options{})
	if err != nil || got != nil {
		t.Fatalf("blank extensions: got=%v err=%v", got, err)
	}
}
