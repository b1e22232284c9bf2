package scan

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"cobolscope/internal/safeio"
)

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "batch/PGMA.cbl").
	Path string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension (e.g., ".cbl"); empty for dirs or no-ext files.
	Ext string
	// File size in bytes; 0 for dirs or when stat fails.
	Size int64
}

// VisitFunc is invoked for every visited entry.
type VisitFunc func(f FileVisit)

type Options struct {
	// IgnoreDirs are directory base names never descended into.
	IgnoreDirs []string
	// MaxDepth limits how many path segments a visited entry may have.
	// Zero means unlimited.
	MaxDepth int
}

// ScanWithOptions walks the SafeFS root in lexical order. Unreadable entries
// are skipped rather than aborting the walk.
func ScanWithOptions(fsys *safeio.SafeFS, opts Options, cb VisitFunc) error {
	if fsys == nil {
		return fmt.Errorf("scan: filesystem is nil")
	}
	ignore := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		if d = strings.TrimSpace(d); d != "" {
			ignore[d] = struct{}{}
		}
	}

	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == "." {
			return nil
		}
		depth := strings.Count(p, "/") + 1
		if d.IsDir() {
			if _, skip := ignore[d.Name()]; skip {
				return fs.SkipDir
			}
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				cb(FileVisit{Path: p, IsDir: true})
				return fs.SkipDir
			}
			cb(FileVisit{Path: p, IsDir: true})
			return nil
		}
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return nil
		}
		var size int64
		if info, e := d.Info(); e == nil {
			size = info.Size()
		}
		cb(FileVisit{Path: p, Ext: strings.ToLower(path.Ext(p)), Size: size})
		return nil
	})
}

// FilesWithExtensions returns sorted root-relative paths of files whose
// extension matches any entry in exts. Extensions are case-insensitive and
// may be given with or without a leading dot.
func FilesWithExtensions(fsys *safeio.SafeFS, exts []string, opts Options) ([]string, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	if len(allowed) == 0 {
		return nil, nil
	}

	var files []string
	err := ScanWithOptions(fsys, opts, func(fv FileVisit) {
		if fv.IsDir {
			return
		}
		if _, ok := allowed[fv.Ext]; ok {
			files = append(files, fv.Path)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Stream walks the root and streams FileVisit entries over a channel.
// If filesOnly is true, directory entries are omitted.
// errCh receives a single error (nil on success).
func Stream(fsys *safeio.SafeFS, opts Options, filesOnly bool) (<-chan FileVisit, <-chan error) {
	out := make(chan FileVisit, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		err := ScanWithOptions(fsys, opts, func(fv FileVisit) {
			if filesOnly && fv.IsDir {
				return
			}
			out <- fv
		})
		errCh <- err
		close(errCh)
	}()

	return out, errCh
}
