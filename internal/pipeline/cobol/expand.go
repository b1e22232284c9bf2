package cobol

import (
	"errors"
	"log/slog"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// Expander inlines COPY statements. Termination on self-including modules is
// guaranteed by the per-chain seen set, not by a depth limit.
type Expander struct {
	tables     *Tables
	classifier LineClassifier
	source     CopybookSource
	logger     *slog.Logger
}

// NewExpander returns an expander reading modules from source. A nil source
// leaves every COPY statement as literal text.
func NewExpander(t *Tables, classifier LineClassifier, source CopybookSource, logger *slog.Logger) *Expander {
	return &Expander{
		tables:     t,
		classifier: classifier,
		source:     source,
		logger:     orDiscard(logger).With("component", "expander"),
	}
}

// ExpandResult is the listing with every resolvable COPY inlined.
type ExpandResult struct {
	Lines       []string
	Copybooks   []cb.Copybook
	Diagnostics []cb.Diagnostic
}

// Expand inlines copy-modules into lines. Problems with a single statement are
// recorded and the statement is kept verbatim.
func (e *Expander) Expand(program string, lines []string) ExpandResult {
	res := ExpandResult{}
	if e.source == nil {
		res.Lines = append([]string(nil), lines...)
		return res
	}
	included := make(map[string]struct{})
	res.Lines = e.expand(lines, map[string]struct{}{}, program, included, &res)
	return res
}

func (e *Expander) expand(lines []string, seen map[string]struct{}, chain string, included map[string]struct{}, res *ExpandResult) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		line := lines[i]
		sl := e.classifier.Classify(line)
		if sl.Comment || sl.IsSentinel() || strings.HasPrefix(strings.TrimLeft(line, " \t"), "*") ||
			!hasWord(nameWords(strings.ToUpper(sl.Code)), "COPY") {
			out = append(out, line)
			i++
			continue
		}

		stmt, next := e.collectStatement(lines, i)
		stmtLines := lines[i:next]
		i = next

		written := copyModuleName(stmt)
		name := strings.ToUpper(written)
		if name == "" {
			out = append(out, stmtLines...)
			continue
		}
		if strings.HasPrefix(name, e.tables.opts.DebugPrefix) {
			e.logger.Debug("dropping debugger copy-module", "module", name, "context", chain)
			continue
		}
		if _, ok := seen[name]; ok {
			e.logger.Warn("copy-module cycle, statement kept as text", "module", name, "context", chain)
			res.Diagnostics = append(res.Diagnostics,
				diagnostic(ErrCopyModuleCycle, sl.Seq, name, "COPY %s in %s", name, chain))
			out = append(out, stmtLines...)
			continue
		}

		book, err := e.source.Lookup(written)
		if err != nil {
			e.logger.Warn("copy-module not expanded, statement kept as text", "module", name, "context", chain, "error", err)
			cause := err
			if !errors.Is(err, ErrUnresolvedCopyModule) {
				cause = errors.Join(ErrUnresolvedCopyModule, err)
			}
			res.Diagnostics = append(res.Diagnostics,
				diagnostic(cause, sl.Seq, name, "COPY %s in %s", name, chain))
			out = append(out, stmtLines...)
			continue
		}
		if _, ok := included[name]; !ok {
			included[name] = struct{}{}
			res.Copybooks = append(res.Copybooks, cb.Copybook{Name: name, Path: book.Path})
		}

		nextSeen := make(map[string]struct{}, len(seen)+1)
		for k := range seen {
			nextSeen[k] = struct{}{}
		}
		nextSeen[name] = struct{}{}

		body := e.expand(book.Lines, nextSeen, chain+"->"+name, included, res)
		text := e.applyReplacing(strings.Join(body, "\n"), replacingPairs(e.tables, stmt))

		out = append(out, SentinelLine(cb.SentinelStart, name))
		if text != "" {
			out = append(out, strings.Split(text, "\n")...)
		}
		out = append(out, SentinelLine(cb.SentinelEnd+" ", name))
	}
	return out
}

// collectStatement joins code zones from start until one holds a period.
func (e *Expander) collectStatement(lines []string, start int) (string, int) {
	parts := make([]string, 0, 2)
	i := start
	for i < len(lines) {
		code := e.classifier.Classify(lines[i]).Code
		parts = append(parts, strings.TrimSpace(code))
		i++
		if strings.Contains(code, ".") {
			break
		}
	}
	return strings.Join(parts, " "), i
}

// copyModuleName extracts the module name of a COPY statement as written.
func copyModuleName(stmt string) string {
	tokens := strings.Fields(stmt)
	idx := -1
	for i, t := range tokens {
		if strings.EqualFold(t, "COPY") {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(tokens) {
		return ""
	}
	candidate := tokens[idx+1]
	if up := strings.ToUpper(candidate); (up == "IN" || up == "OF") && idx+2 < len(tokens) {
		candidate = tokens[idx+2]
	}
	candidate = strings.TrimRight(candidate, ".")
	return strings.Trim(candidate, `"'`)
}

type replacePair struct {
	Old string
	New string
}

func replacingPairs(t *Tables, stmt string) []replacePair {
	idx := strings.Index(strings.ToUpper(stmt), "REPLACING")
	if idx < 0 {
		return nil
	}
	tail := stmt[idx+len("REPLACING"):]
	var pairs []replacePair
	for _, m := range t.replacing.FindAllStringSubmatch(tail, -1) {
		pairs = append(pairs, replacePair{Old: m[1], New: m[2]})
	}
	return pairs
}

// applyReplacing substitutes each pair in order. A placeholder written with
// its pseudo-text delimiters in the module body is replaced whole. Residual
// ":DEPENDING ON x:" markers are then blanked.
func (e *Expander) applyReplacing(text string, pairs []replacePair) string {
	for _, p := range pairs {
		if p.Old == "" {
			continue
		}
		text = strings.ReplaceAll(text, "=="+p.Old+"==", p.New)
		text = strings.ReplaceAll(text, p.Old, p.New)
	}
	return e.tables.depending.ReplaceAllString(text, " ")
}

// SentinelLine builds a copy-module marker in the comment indicator column.
func SentinelLine(marker, name string) string {
	return strings.Repeat(" ", cb.IndicatorCol) + marker + name
}
