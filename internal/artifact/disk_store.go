package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore writes artifacts below root as <runID>/<path>.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("disk store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Put(_ context.Context, runID, path string, content []byte) error {
	fullPath, err := s.pathFor(runID, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, content, 0o644)
}

func (s *DiskStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	fullPath, err := s.pathFor(runID, path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return raw, err
}

// GetURL returns a file:// URL for artifacts that exist.
func (s *DiskStore) GetURL(_ context.Context, runID, path string) (string, error) {
	fullPath, err := s.pathFor(runID, path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (s *DiskStore) List(_ context.Context, runID string) ([]string, error) {
	runID, err := checkRun(runID)
	if err != nil {
		return nil, err
	}
	runRoot := filepath.Join(s.root, runID)
	paths := make([]string, 0, 32)
	walkErr := filepath.WalkDir(runRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(runRoot, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DiskStore) pathFor(runID, path string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	runID, path, err := checkKey(runID, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, runID, filepath.FromSlash(path)), nil
}
