package cobol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cb "cobolscope/internal/types/cobol"
)

var procedureListing = []string{
	src(10, "WORKING-STORAGE SECTION."),
	src(20, "STRAY-LABEL."),
	src(100, "PROCEDURE DIVISION."),
	src(110, "000-MAIN."),
	src(120, "    PERFORM 100-INIT."),
	src(130, "    PERFORM 200-PROC THRU 200-EXIT."),
	src(140, "    PERFORM SMAD-TRACE."),
	src(150, "    PERFORM UNTIL WS-EOF = 'Y'"),
	src(155, "    END-PERFORM."),
	src(160, "    GO TO 900-END."),
	src(170, "100-INIT."),
	src(180, "    MOVE 1 TO WS-A."),
	src(190, "200-PROC."),
	src(200, "    EXEC CICS XCTL PROGRAM('PGMB') END-EXEC."),
	src(210, "200-EXIT."),
	src(220, "    EXIT."),
	comment(225, "NOT-A-PARAGRAPH."),
	src(230, "900-END."),
	src(240, "    PERFORM 300-MISSING-F."),
	src(250, "    GO TO 100-INIT-F."),
	src(260, "    EXEC CICS RETURN"),
	src(270, "         TRANSID('TX01')"),
	src(280, "    END-EXEC."),
	src(290, "    GOBACK."),
}

func scanProcedure(t *testing.T, raw []string) ParagraphResult {
	t.Helper()
	tables := NewTables(DefaultOptions())
	s := NewParagraphScanner(tables, NewColumnClassifier(tables), nil)
	return s.Scan(classifyAll(tables, raw))
}

func TestParagraphBoundaries(t *testing.T) {
	res := scanProcedure(t, procedureListing)
	require.Equal(t, 2, res.ProcedureStart)

	var names []string
	for _, p := range res.Paragraphs {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"000-MAIN", "100-INIT", "200-PROC", "200-EXIT", "900-END"}, names)

	for i, p := range res.Paragraphs {
		assert.Equal(t, i+1, p.Order)
		if i+1 < len(res.Paragraphs) {
			assert.Equal(t, res.Paragraphs[i+1].Start, p.End)
		} else {
			assert.Equal(t, len(procedureListing), p.End)
		}
	}
	assert.Equal(t, "000170", res.Paragraphs[1].Seq)
	assert.Equal(t, cb.ClassInit, res.Paragraphs[1].Class)
}

func TestParagraphHeaderAtSequence(t *testing.T) {
	res := scanProcedure(t, []string{
		"000090 PROCEDURE DIVISION.",
		"000100 100-INIT.",
		"000110     DISPLAY 'X'.",
	})
	require.Len(t, res.Paragraphs, 1)
	assert.Equal(t, "100-INIT", res.Paragraphs[0].Name)
	assert.Equal(t, "000100", res.Paragraphs[0].Seq)
}

func TestParagraphHeaderRules(t *testing.T) {
	tables := NewTables(DefaultOptions())
	cls := NewColumnClassifier(tables)
	cases := []struct {
		raw  string
		want bool
	}{
		{src(1, "100-INIT."), true},
		{src(1, "a100-init."), true},
		{src(1, " 100-INIT."), false},
		{src(1, "100-INIT"), false},
		{src(1, "100-INIT. EXIT."), false},
		{src(1, "EXIT."), false},
		{src(1, "END-IF."), false},
		{src(1, "-BAD."), false},
		{src(1, "A234567890123456789012345678901."), false},
		{comment(1, "100-INIT."), false},
		{"00001", false},
	}
	for _, tc := range cases {
		_, got := cls.ParagraphHeader(cls.Classify(tc.raw))
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParagraphEdges(t *testing.T) {
	res := scanProcedure(t, procedureListing)

	type edge struct {
		from, to string
		kind     cb.EdgeKind
	}
	var got []edge
	known := make(map[string]bool)
	for _, p := range res.Paragraphs {
		known[p.Name] = true
	}
	for _, e := range res.Edges {
		assert.True(t, known[e.To], "edge target %s must be a paragraph", e.To)
		got = append(got, edge{e.From, e.To, e.Kind})
	}
	assert.Equal(t, []edge{
		{"000-MAIN", "100-INIT", cb.EdgePerform},
		{"000-MAIN", "200-PROC", cb.EdgePerform},
		{"000-MAIN", "200-EXIT", cb.EdgePerformThru},
		{"000-MAIN", "900-END", cb.EdgeGoto},
		{"900-END", "100-INIT", cb.EdgeGoto},
	}, got)

	assert.Equal(t, cb.EdgeStats{Goto: 2, Perform: 2, PerformThru: 1, Exits: 3, Unresolved: 1}, res.Stats)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, cb.DiagUnresolvedCallTarget, res.Diagnostics[0].Code)
	assert.Contains(t, res.Diagnostics[0].Message, "300-MISSING-F")
}

func TestParagraphExits(t *testing.T) {
	res := scanProcedure(t, procedureListing)
	require.Len(t, res.Exits, 3)

	xctl := res.Exits[0]
	assert.Equal(t, cb.ExitXCTL, xctl.Kind)
	assert.Equal(t, "200-PROC", xctl.Paragraph)
	assert.Contains(t, xctl.Label, "PGMB")

	ret := res.Exits[1]
	assert.Equal(t, cb.ExitReturn, ret.Kind)
	assert.Equal(t, "900-END", ret.Paragraph)
	assert.Equal(t, "RETURN TX01", ret.Label)
	assert.Equal(t, "000260", ret.Seq)

	assert.Equal(t, cb.ExitGoback, res.Exits[2].Kind)
}

func TestParagraphsWithoutProcedureMarker(t *testing.T) {
	res := scanProcedure(t, []string{src(10, "100-INIT."), src(20, "    GOBACK.")})
	assert.Equal(t, -1, res.ProcedureStart)
	assert.Empty(t, res.Paragraphs)
	assert.Empty(t, res.Edges)
}

func TestClassifyParagraph(t *testing.T) {
	assert.Equal(t, cb.ClassInit, ClassifyParagraph("000-START"))
	assert.Equal(t, cb.ClassPFKey, ClassifyParagraph("300-PF3"))
	assert.Equal(t, cb.ClassSRHP, ClassifyParagraph("SRHP-LOAD"))
	assert.Equal(t, cb.ClassAnomaly, ClassifyParagraph("ZZ-ABEND"))
	assert.Equal(t, cb.ClassOther, ClassifyParagraph("500-CALC"))
}
