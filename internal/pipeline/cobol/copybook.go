package cobol

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"cobolscope/internal/safeio"
	cb "cobolscope/internal/types/cobol"
)

// copybookSuffixes are tried, in order, after the bare module name.
var copybookSuffixes = []string{"", ".cpy", ".CPY", ".cbl", ".CBL", ".cob", ".COB", ".txt", ".TXT"}

// CopybookSource looks up copy-module bodies by name.
type CopybookSource interface {
	Lookup(name string) (cb.Copybook, error)
}

// Resolver finds copy-modules along an ordered directory list. Bodies are
// cached by resolved path; the cache only saves disk reads and carries no
// expansion state, so one Resolver may serve concurrent analyses.
type Resolver struct {
	dirs     []*safeio.SafeFS
	encoding string
	tables   *Tables
	cache    *lru.Cache[string, []string]
	logger   *slog.Logger
}

// NewResolver binds the search path. Missing directories are skipped with a
// warning so one stale entry does not disable expansion.
func NewResolver(t *Tables, dirs []string, encoding string, cacheEntries int, logger *slog.Logger) (*Resolver, error) {
	logger = orDiscard(logger).With("component", "copybooks")
	if cacheEntries <= 0 {
		cacheEntries = 1024
	}
	cache, err := lru.New[string, []string](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("copybook cache: %w", err)
	}
	r := &Resolver{encoding: encoding, tables: t, cache: cache, logger: logger}
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		fsys, err := safeio.NewSafeFS(d)
		if err != nil {
			logger.Warn("skipping copybook directory", "dir", d, "error", err)
			continue
		}
		r.dirs = append(r.dirs, fsys)
	}
	return r, nil
}

// Dirs returns the resolved search path.
func (r *Resolver) Dirs() []string {
	out := make([]string, 0, len(r.dirs))
	for _, d := range r.dirs {
		out = append(out, d.Root())
	}
	return out
}

// Lookup returns the body of the named module with debug lines removed. It
// returns ErrUnresolvedCopyModule when no candidate exists.
func (r *Resolver) Lookup(name string) (cb.Copybook, error) {
	names := []string{name}
	for _, alt := range []string{strings.ToUpper(name), strings.ToLower(name)} {
		if !slices.Contains(names, alt) {
			names = append(names, alt)
		}
	}
	for _, dir := range r.dirs {
		for _, base := range names {
			for _, suffix := range copybookSuffixes {
				rel := base + suffix
				if strings.ContainsAny(rel, `/\`) {
					continue
				}
				info, err := dir.SafeStat(rel)
				if err != nil || info.IsDir() {
					continue
				}
				path := filepath.Join(dir.Root(), rel)
				if lines, ok := r.cache.Get(path); ok {
					return cb.Copybook{Name: strings.ToUpper(name), Path: path, Lines: lines}, nil
				}
				lines, err := r.load(dir, rel)
				if err != nil {
					return cb.Copybook{}, fmt.Errorf("read copybook %s: %w", path, err)
				}
				r.cache.Add(path, lines)
				return cb.Copybook{Name: strings.ToUpper(name), Path: path, Lines: lines}, nil
			}
		}
	}
	return cb.Copybook{}, fmt.Errorf("%s: %w", name, ErrUnresolvedCopyModule)
}

func (r *Resolver) load(dir *safeio.SafeFS, rel string) ([]string, error) {
	text, err := dir.ReadText(rel, r.encoding)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrUnresolvedCopyModule
		}
		return nil, err
	}
	raw := SplitLines(text)
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if r.tables.hasDebugPrefix(l) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// SplitLines splits decoded text into physical lines without terminators.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
