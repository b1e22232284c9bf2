package cobol

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// Normalizer filters a listing down to its code lines and renumbers them.
type Normalizer struct {
	Start int

	tables     *Tables
	classifier LineClassifier
	logger     *slog.Logger
}

func NewNormalizer(t *Tables, classifier LineClassifier, start int, logger *slog.Logger) *Normalizer {
	if start <= 0 {
		start = 1
	}
	return &Normalizer{
		Start:      start,
		tables:     t,
		classifier: classifier,
		logger:     orDiscard(logger).With("component", "normalizer"),
	}
}

// NormalizeResult is the renumbered listing plus what was dropped.
type NormalizeResult struct {
	Lines       []string
	Dropped     int
	Diagnostics []cb.Diagnostic
}

// Normalize drops debug lines, JCL lines, comments and blank code lines, in
// that order, and renumbers the rest. Copy-module sentinels survive. When the
// sequence would pass 999999 the listing is cut short and a diagnostic is
// recorded.
func (n *Normalizer) Normalize(name string, raw []string) NormalizeResult {
	var res NormalizeResult
	seq := n.Start
	for i, text := range raw {
		text = strings.TrimRight(text, "\r\n")
		if n.dropLine(text) {
			res.Dropped++
			continue
		}
		if seq > cb.MaxSequence {
			n.logger.Warn("listing exceeds last sequence number, stopping", "program", name, "line", i+1)
			res.Diagnostics = append(res.Diagnostics,
				diagnostic(ErrSequenceOverflow, seq, "", "%s: %d lines not emitted", name, len(raw)-i))
			break
		}
		res.Lines = append(res.Lines, FormatLine(seq, text))
		seq++
	}
	return res
}

func (n *Normalizer) dropLine(text string) bool {
	if n.tables.hasDebugPrefix(text) {
		return true
	}
	line := n.classifier.Classify(text)
	if n.tables.hasDebugPrefix(line.Code) {
		return true
	}
	if strings.HasPrefix(text, "//") {
		return true
	}
	if line.Comment {
		return true
	}
	if line.IsSentinel() {
		return false
	}
	return strings.TrimSpace(line.Code) == ""
}

// FormatLine re-emits text with a fresh six-digit sequence, columns 7-72
// verbatim and a blank reserved area.
func FormatLine(seq int, text string) string {
	cols := newColumns(strings.TrimRight(text, "\r\n"))
	return fmt.Sprintf("%06d", seq) + cols.slice(cb.IndicatorCol, cb.CodeEnd) + strings.Repeat(" ", cb.LineWidth-cb.CodeEnd)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
