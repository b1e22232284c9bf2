package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SafeFS reads listings and copy-modules relative to a fixed root. Paths that
// resolve outside the root, symlinks included, are rejected.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

var (
	ErrOutsideRoot = errors.New("safeio: path resolves outside root")
	ErrIsDir       = errors.New("safeio: path is a directory")
	ErrNotDir      = errors.New("safeio: path is not a directory")
)

// NewSafeFS locks all future operations to the given root directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, root)
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// Rel converts a path under the root into a slash-separated relative path.
func (s *SafeFS) Rel(p string) (string, error) {
	resolved, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.absRoot, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// SafeReadFile reads a regular file relative to the root.
func (s *SafeFS) SafeReadFile(userPath string) ([]byte, error) {
	p, err := s.resolveFile(userPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// ReadText reads a file and decodes it to UTF-8 with the named encoding.
func (s *SafeFS) ReadText(userPath, encoding string) (string, error) {
	data, err := s.SafeReadFile(userPath)
	if err != nil {
		return "", err
	}
	text, err := Decode(data, encoding)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", userPath, err)
	}
	return text, nil
}

// SafeOpen opens a regular file relative to the root for reading.
func (s *SafeFS) SafeOpen(userPath string) (*os.File, error) {
	p, err := s.resolveFile(userPath)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// SafeStat returns metadata for a file or directory under the root.
func (s *SafeFS) SafeStat(userPath string) (fs.FileInfo, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// SafeReadDir lists entries for a directory relative to the root.
func (s *SafeFS) SafeReadDir(userPath string) ([]fs.DirEntry, error) {
	dir, err := s.resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, userPath)
	}
	return os.ReadDir(dir)
}

// Open implements fs.FS so a SafeFS can feed fs.WalkDir.
func (s *SafeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	p, err := s.resolve(filepath.FromSlash(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return os.Open(p)
}

func (s *SafeFS) resolveFile(userPath string) (string, error) {
	p, err := s.resolve(userPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDir, userPath)
	}
	return p, nil
}

func (s *SafeFS) resolve(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if userPath == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(userPath)
	if clean == "." {
		return s.absRoot, nil
	}

	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	joined := clean
	if !isAbs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, userPath)
		}
		joined = filepath.Join(s.absRoot, clean)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, resolved)
	}
	return resolved, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path+sep, root)
}
