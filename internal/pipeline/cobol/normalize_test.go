package cobol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cb "cobolscope/internal/types/cobol"
)

func newTestNormalizer(start int) *Normalizer {
	t := NewTables(DefaultOptions())
	return NewNormalizer(t, NewColumnClassifier(t), start, nil)
}

func TestNormalizeFiltersInOrder(t *testing.T) {
	n := newTestNormalizer(100)
	raw := []string{
		src(10, "IDENTIFICATION DIVISION."),
		src(20, "    SMASH-TRACE 'X'."),
		"//STEP1 EXEC PGM=IEFBR14",
		comment(30, " a comment"),
		src(40, "    "),
		"      *COPYBOOK BOOKA",
		src(50, "    MOVE A TO B."),
		"      *END COPYBOOK BOOKA",
		"12",
	}
	res := n.Normalize("PGMA", raw)

	require.Len(t, res.Lines, 4)
	assert.Equal(t, 5, res.Dropped)
	assert.True(t, strings.HasPrefix(res.Lines[0], "000100 IDENTIFICATION DIVISION."))
	assert.True(t, strings.HasPrefix(res.Lines[1], "000101*COPYBOOK BOOKA"))
	assert.True(t, strings.HasPrefix(res.Lines[2], "000102     MOVE A TO B."))
	assert.True(t, strings.HasPrefix(res.Lines[3], "000103*END COPYBOOK BOOKA"))
	for _, l := range res.Lines {
		assert.Len(t, l, cb.LineWidth)
		assert.Equal(t, strings.Repeat(" ", 8), l[cb.CodeEnd:])
	}
}

func TestNormalizeRoundTripKeepsColumns(t *testing.T) {
	n := newTestNormalizer(1)
	raw := []string{
		src(10, "PROCEDURE DIVISION."),
		src(20, "100-INIT."),
		src(30, "    MOVE 'ABC' TO WS-A.                                           TAIL"),
		src(40, "    GOBACK."),
	}
	first := n.Normalize("PGMA", raw)
	second := n.Normalize("PGMA", first.Lines)

	require.Equal(t, len(first.Lines), len(second.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i][cb.IndicatorCol:], second.Lines[i][cb.IndicatorCol:])
	}
	assert.Equal(t, first.Lines, second.Lines)
	// columns 73-80 are blanked on output
	assert.NotContains(t, first.Lines[2], "TAIL")
}

func TestNormalizeStopsAtSequenceOverflow(t *testing.T) {
	n := newTestNormalizer(cb.MaxSequence - 1)
	raw := []string{src(1, "A."), src(2, "B."), src(3, "C.")}
	res := n.Normalize("BIG", raw)

	require.Len(t, res.Lines, 2)
	assert.True(t, strings.HasPrefix(res.Lines[1], "999999"))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, cb.DiagSequenceOverflow, res.Diagnostics[0].Code)
}

func TestFormatLineLatin1Columns(t *testing.T) {
	line := FormatLine(7, src(1, "    DISPLAY 'CAFÉ'."))
	assert.Equal(t, cb.LineWidth, len([]rune(line)))
	assert.True(t, strings.HasPrefix(line, "000007     DISPLAY 'CAFÉ'."))
}
