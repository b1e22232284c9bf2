package cobol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cb "cobolscope/internal/types/cobol"
)

func newTestExpander(source CopybookSource) *Expander {
	t := NewTables(DefaultOptions())
	return NewExpander(t, NewColumnClassifier(t), source, nil)
}

func joined(lines []string) string { return strings.Join(lines, "\n") }

func TestExpandReplacing(t *testing.T) {
	e := newTestExpander(memSource{
		"BOOKA": {src(10, "    MOVE ==OLD== TO X.")},
		"BOOKB": {src(10, "    MOVE OLD-VAL TO X.")},
	})
	res := e.Expand("PGMA", []string{
		src(100, "    COPY BOOKA REPLACING ==OLD== BY ==NEW==."),
		src(110, "    COPY BOOKB"),
		src(120, "        REPLACING ==OLD-VAL== BY ==NEW-VAL==."),
	})

	out := joined(res.Lines)
	assert.Contains(t, out, "MOVE NEW TO X.")
	assert.Contains(t, out, "MOVE NEW-VAL TO X.")
	assert.NotContains(t, out, "COPY BOOK")
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Copybooks, 2)
	assert.Equal(t, "BOOKA", res.Copybooks[0].Name)
}

func TestExpandWrapsInSentinels(t *testing.T) {
	e := newTestExpander(memSource{"BOOKA": {src(10, "01  WS-A PIC X.")}})
	res := e.Expand("PGMA", []string{src(100, "    COPY BOOKA OF LIBX.")})

	require.Len(t, res.Lines, 3)
	assert.Equal(t, "      *COPYBOOK BOOKA", res.Lines[0])
	assert.Equal(t, "      *END COPYBOOK BOOKA", res.Lines[2])

	cls := NewColumnClassifier(NewTables(DefaultOptions()))
	start := cls.Classify(res.Lines[0])
	end := cls.Classify(res.Lines[2])
	assert.True(t, start.SentinelStart)
	assert.Equal(t, "BOOKA", start.Module)
	assert.True(t, end.SentinelEnd)
	assert.False(t, start.Comment)
}

func TestExpandSelfReferenceTerminates(t *testing.T) {
	e := newTestExpander(memSource{
		"BOOKA": {src(10, "    COPY BOOKB.")},
		"BOOKB": {src(10, "    COPY BOOKA.")},
		"SELF":  {src(10, "    COPY SELF.")},
	})
	res := e.Expand("PGMA", []string{
		src(100, "    COPY BOOKA."),
		src(110, "    COPY SELF."),
	})

	out := joined(res.Lines)
	// the innermost statement of each chain stays literal
	assert.Equal(t, 1, strings.Count(out, "COPY BOOKA."))
	assert.Equal(t, 1, strings.Count(out, "COPY SELF."))
	assert.NotContains(t, out, "COPY BOOKB.")
	assert.True(t, hasDiag(res.Diagnostics, cb.DiagCopyModuleCycle))
	assert.Contains(t, out, "*COPYBOOK BOOKB")
}

func TestExpandMissingModuleKeepsText(t *testing.T) {
	e := newTestExpander(memSource{})
	in := []string{src(100, "    COPY NOPE.")}
	res := e.Expand("PGMA", in)

	assert.Equal(t, in, res.Lines)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, cb.DiagUnresolvedCopyModule, res.Diagnostics[0].Code)
	assert.Equal(t, "NOPE", res.Diagnostics[0].Module)
}

func TestExpandDropsDebugModules(t *testing.T) {
	e := newTestExpander(memSource{})
	res := e.Expand("PGMA", []string{
		src(100, "    COPY SMASHDBG."),
		src(110, "    MOVE A TO B."),
	})
	assert.Equal(t, []string{src(110, "    MOVE A TO B.")}, res.Lines)
	assert.Empty(t, res.Diagnostics)
}

func TestExpandRemovesDependingMarkers(t *testing.T) {
	e := newTestExpander(memSource{"TAB": {src(10, "05  ROW OCCURS 10 :DEPENDING ON N-ROWS: PIC X.")}})
	res := e.Expand("PGMA", []string{src(100, "    COPY TAB.")})
	assert.NotContains(t, joined(res.Lines), "DEPENDING")
}

func TestExpandIgnoresCommentedCopy(t *testing.T) {
	e := newTestExpander(memSource{"BOOKA": {src(10, "01 X PIC X.")}})
	in := []string{comment(100, "   COPY BOOKA.")}
	res := e.Expand("PGMA", in)
	assert.Equal(t, in, res.Lines)
}

func TestCopyModuleName(t *testing.T) {
	cases := map[string]string{
		"COPY BOOKA.":             "BOOKA",
		"COPY 'booka'.":           "booka",
		"COPY BOOKA OF LIB.":      "BOOKA",
		"COPY BOOKA REPLACING ==": "BOOKA",
		"COPY":                    "",
	}
	for stmt, want := range cases {
		assert.Equal(t, want, copyModuleName(stmt), stmt)
	}
}
