package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cobolscope/internal/artifact"
	"cobolscope/internal/pipeline/cobol"
	"cobolscope/internal/safeio"
	"cobolscope/internal/scan"
	cb "cobolscope/internal/types/cobol"
)

func line(seq int, code string) string {
	return fmt.Sprintf("%06d %s", seq, code)
}

func listing(id string) string {
	lines := []string{
		line(100, "IDENTIFICATION DIVISION."),
		line(110, "PROGRAM-ID. "+id+"."),
		line(120, "DATA DIVISION."),
		line(130, "WORKING-STORAGE SECTION."),
		line(140, "01  WS-COUNT PIC 9(4) COMP."),
		line(150, "PROCEDURE DIVISION."),
		line(160, "000-MAIN."),
		line(170, "    PERFORM 100-ADD."),
		line(180, "    GOBACK."),
		line(190, "100-ADD."),
		line(200, "    ADD 1 TO WS-COUNT."),
	}
	return strings.Join(lines, "\n") + "\n"
}

func fixture(t *testing.T) (*safeio.SafeFS, *cobol.Analyzer) {
	t.Helper()
	root := t.TempDir()
	for rel, id := range map[string]string{"PGMA.cbl": "PGMA", "batch/pgmb.cob": "PGMB"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(listing(id)), 0o644))
	}
	fsys, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	a, err := cobol.NewAnalyzer(cobol.AnalyzerConfig{SequenceStart: 1}, nil)
	require.NoError(t, err)
	return fsys, a
}

func TestRunDirPublishesArtifacts(t *testing.T) {
	fsys, a := fixture(t)
	store := artifact.NewMemoryStore()
	r := New(a, store, 2, nil)
	ctx := context.Background()

	sum, err := r.RunDir(ctx, fsys, []string{".cbl", ".cob"}, scan.Options{}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Analyzed)
	assert.Zero(t, sum.Failed)

	list, err := store.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PGMA.etude",
		"PGMA.model.json",
		"batch/PGMB.etude",
		"batch/PGMB.model.json",
		"summary.json",
	}, list)

	raw, err := store.Get(ctx, "run-1", "PGMA.etude")
	require.NoError(t, err)
	for _, l := range strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n") {
		assert.Len(t, l, cb.LineWidth)
	}

	var m cb.ProgramModel
	require.NoError(t, artifact.GetJSON(ctx, store, "run-1", "batch/PGMB.model.json", &m))
	assert.Equal(t, "PGMB", m.ProgramID)
	assert.Equal(t, "batch/pgmb.cob", m.SourcePath)
	require.Len(t, m.Edges, 1)
	assert.Equal(t, "100-ADD", m.Edges[0].To)

	var stored Summary
	require.NoError(t, artifact.GetJSON(ctx, store, "run-1", SummaryPath, &stored))
	assert.Equal(t, 2, stored.Analyzed)
	assert.Equal(t, StatusOK, stored.Files[1].Status)
	assert.Equal(t, []string{"batch/PGMB.etude", "batch/PGMB.model.json"}, stored.Files[1].Artifacts)
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	fsys, a := fixture(t)
	store := artifact.NewMemoryStore()
	r := New(a, store, 1, nil)
	ctx := context.Background()

	sum, err := r.Run(ctx, fsys, []string{"GONE.cbl", "PGMA.cbl"}, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Analyzed)
	assert.Equal(t, 1, sum.Failed)

	gone := sum.Files[0]
	assert.Equal(t, StatusFailed, gone.Status)
	assert.Contains(t, gone.Error, "GONE.cbl")
	assert.Empty(t, gone.Artifacts)

	_, err = store.Get(ctx, "run-2", "GONE.model.json")
	assert.True(t, errors.Is(err, artifact.ErrNotFound))
}

func TestRunCancelledStillWritesSummary(t *testing.T) {
	fsys, a := fixture(t)
	store := artifact.NewMemoryStore()
	r := New(a, store, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.Run(ctx, fsys, []string{"PGMA.cbl", "batch/pgmb.cob"}, "run-3")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, sum.Skipped)

	var stored Summary
	require.NoError(t, artifact.GetJSON(context.Background(), store, "run-3", SummaryPath, &stored))
	assert.Equal(t, 2, stored.Skipped)
}

func TestArtifactBase(t *testing.T) {
	cases := map[string]string{
		"PGMA.cbl":         "PGMA",
		"batch/pgmb.cob":   "batch/PGMB",
		"../x/pgmc.cbl":    "x/PGMC",
		`win\dir\pgmd.CBL`: "win/dir/PGMD",
		"noext":            "NOEXT",
	}
	for in, want := range cases {
		assert.Equal(t, want, ArtifactBase(in), in)
	}
}

func TestNewRunIDSortsByTime(t *testing.T) {
	a := NewRunID(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	b := NewRunID(time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC))
	assert.True(t, strings.HasPrefix(a, "run-20260102T030405"))
	assert.Less(t, a, b)
}
