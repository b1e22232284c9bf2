package cobol

import (
	"strconv"
	"strings"
	"unicode/utf8"

	cb "cobolscope/internal/types/cobol"
)

// LineClassifier turns physical lines into classified source lines and
// recognizes paragraph headers. Stages downstream of line splitting only
// depend on this interface.
type LineClassifier interface {
	Classify(raw string) cb.SourceLine
	ParagraphHeader(line cb.SourceLine) (string, bool)
}

// ColumnClassifier classifies lines by fixed column positions.
type ColumnClassifier struct {
	tables *Tables
}

func NewColumnClassifier(t *Tables) *ColumnClassifier {
	return &ColumnClassifier{tables: t}
}

// Classify splits raw into sequence, indicator and code zone.
func (c *ColumnClassifier) Classify(raw string) cb.SourceLine {
	raw = strings.TrimRight(raw, "\r\n")
	line := cb.SourceLine{Raw: raw}
	if columnCount(raw) <= cb.IndicatorCol {
		line.Malformed = true
		line.SeqText = strings.TrimSpace(raw)
		line.Seq = atoiOrZero(line.SeqText)
		return line
	}

	cols := newColumns(raw)
	line.SeqText = cols.slice(0, cb.SeqEnd)
	line.Seq = atoiOrZero(strings.TrimSpace(line.SeqText))
	line.Indicator = cols.at(cb.IndicatorCol)
	line.Code = cols.slice(cb.CodeStart, cb.CodeEnd)

	switch line.Indicator {
	case '*':
		marker := strings.ToUpper(strings.TrimSpace(cols.slice(cb.IndicatorCol, cb.CodeEnd)))
		switch {
		case strings.HasPrefix(marker, cb.SentinelStart):
			line.SentinelStart = true
			line.Module = strings.TrimSpace(marker[len(cb.SentinelStart):])
		case strings.HasPrefix(marker, cb.SentinelEnd):
			line.SentinelEnd = true
			line.Module = strings.TrimSpace(marker[len(cb.SentinelEnd):])
		default:
			line.Comment = true
		}
	case '/':
		line.Comment = true
	}
	return line
}

// ParagraphHeader reports whether line opens a paragraph and returns its
// upper-cased name. The caller decides whether the procedure text has begun.
func (c *ColumnClassifier) ParagraphHeader(line cb.SourceLine) (string, bool) {
	if line.Malformed || line.Comment || line.IsSentinel() {
		return "", false
	}
	if line.Code == "" || line.Code[0] == ' ' || line.Code[0] == '\t' {
		return "", false
	}
	fields := strings.Fields(line.Code)
	if len(fields) != 1 {
		return "", false
	}
	token := fields[0]
	if !strings.HasSuffix(token, ".") {
		return "", false
	}
	name := strings.TrimSuffix(token, ".")
	if len(name) == 0 || len(name) > 30 {
		return "", false
	}
	if !c.tables.headerName.MatchString(name) {
		return "", false
	}
	name = strings.ToUpper(name)
	if c.tables.IsReserved(name) {
		return "", false
	}
	return name, true
}

// PadLine pads or truncates raw to the fixed listing width.
func PadLine(raw string) string {
	return newColumns(strings.TrimRight(raw, "\r\n")).slice(0, cb.LineWidth)
}

// columns indexes a line by listing column. Decoded single-byte listings may
// carry multi-byte runes, so positions count runes, not bytes.
type columns struct {
	ascii string
	runes []rune
}

func newColumns(raw string) columns {
	if utf8.RuneCountInString(raw) == len(raw) {
		return columns{ascii: raw}
	}
	return columns{runes: []rune(raw)}
}

func (c columns) len() int {
	if c.runes != nil {
		return len(c.runes)
	}
	return len(c.ascii)
}

// slice returns columns [from, to), blank-padded past the end of the line.
func (c columns) slice(from, to int) string {
	n := c.len()
	var b strings.Builder
	b.Grow(to - from)
	for i := from; i < to; i++ {
		switch {
		case i >= n:
			b.WriteByte(' ')
		case c.runes != nil:
			b.WriteRune(c.runes[i])
		default:
			b.WriteByte(c.ascii[i])
		}
	}
	return b.String()
}

func (c columns) at(i int) byte {
	if i >= c.len() {
		return ' '
	}
	if c.runes != nil {
		if r := c.runes[i]; r < utf8.RuneSelf {
			return byte(r)
		}
		return 0
	}
	return c.ascii[i]
}

func columnCount(s string) int { return utf8.RuneCountInString(s) }

// isProcedureMarker reports whether the code zone opens the procedure text.
func isProcedureMarker(code string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(code)), "PROCEDURE DIVISION")
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
