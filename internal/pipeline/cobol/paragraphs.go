package cobol

import (
	"log/slog"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// ParagraphScanner finds paragraph boundaries in the procedure text and the
// control transfers and exits inside each paragraph.
type ParagraphScanner struct {
	tables     *Tables
	classifier LineClassifier
	logger     *slog.Logger
}

func NewParagraphScanner(t *Tables, classifier LineClassifier, logger *slog.Logger) *ParagraphScanner {
	return &ParagraphScanner{
		tables:     t,
		classifier: classifier,
		logger:     orDiscard(logger).With("component", "paragraphs"),
	}
}

// ParagraphResult holds everything extracted from the procedure text.
type ParagraphResult struct {
	// ProcedureStart indexes the procedure marker line, or -1 when absent.
	ProcedureStart int
	Paragraphs     []cb.Paragraph
	Edges          []cb.CallEdge
	Exits          []cb.ExitEvent
	Stats          cb.EdgeStats
	Diagnostics    []cb.Diagnostic
}

// Scan runs boundary detection then per-paragraph edge and exit extraction.
func (s *ParagraphScanner) Scan(lines []cb.SourceLine) ParagraphResult {
	res := ParagraphResult{ProcedureStart: -1}
	res.Paragraphs = s.boundaries(lines, &res)

	known := make(map[string]struct{}, len(res.Paragraphs))
	for _, p := range res.Paragraphs {
		known[p.Name] = struct{}{}
	}
	for _, p := range res.Paragraphs {
		s.scanSpan(lines, p, known, &res)
	}
	return res
}

func (s *ParagraphScanner) boundaries(lines []cb.SourceLine, res *ParagraphResult) []cb.Paragraph {
	var paras []cb.Paragraph
	for i, line := range lines {
		if res.ProcedureStart < 0 {
			if !line.Comment && !line.IsSentinel() && isProcedureMarker(line.Code) {
				res.ProcedureStart = i
			}
			continue
		}
		name, ok := s.classifier.ParagraphHeader(line)
		if !ok {
			continue
		}
		if n := len(paras); n > 0 {
			paras[n-1].End = i
		}
		paras = append(paras, cb.Paragraph{
			Order: len(paras) + 1,
			Seq:   line.SeqText,
			Name:  name,
			Start: i,
			End:   len(lines),
			Class: ClassifyParagraph(name),
		})
	}
	return paras
}

type cicsBlock struct {
	text string
	seq  string
}

func (s *ParagraphScanner) scanSpan(lines []cb.SourceLine, p cb.Paragraph, known map[string]struct{}, res *ParagraphResult) {
	var pending *cicsBlock
	for i := p.Start + 1; i < p.End; i++ {
		line := lines[i]
		if line.Malformed || line.Comment || line.IsSentinel() {
			continue
		}
		code := strings.TrimSpace(line.Code)
		if code == "" {
			continue
		}
		upper := strings.ToUpper(code)
		tokens := strings.Fields(strings.ReplaceAll(upper, ".", " "))

		s.transfers(p, line, code, tokens, known, res)

		switch {
		case pending != nil:
			pending.text += " " + upper
		case strings.Contains(upper, "EXEC CICS"):
			pending = &cicsBlock{text: upper, seq: line.SeqText}
		}
		if pending != nil {
			if strings.Contains(upper, "END-EXEC") {
				s.cicsExit(p, pending, code, res)
				pending = nil
			}
			continue
		}

		if hasToken(tokens, "GOBACK") {
			s.addExit(res, p, cb.ExitGoback, "GOBACK", line.SeqText, code)
		}
		if hasToken(tokens, "STOP") && hasToken(tokens, "RUN") {
			s.addExit(res, p, cb.ExitStopRun, "STOP RUN", line.SeqText, code)
		}
	}
	if pending != nil {
		s.cicsExit(p, pending, pending.text, res)
	}
}

// transfers extracts GO TO, PERFORM and PERFORM ... THRU edges from one line.
func (s *ParagraphScanner) transfers(p cb.Paragraph, line cb.SourceLine, code string, tokens []string, known map[string]struct{}, res *ParagraphResult) {
	for k := 0; k < len(tokens); k++ {
		switch tokens[k] {
		case "GO":
			if k+2 < len(tokens) && tokens[k+1] == "TO" {
				if target, ok := s.resolve(tokens[k+2], known, line, res); ok {
					res.Stats.Goto++
					res.Edges = append(res.Edges, cb.CallEdge{From: p.Name, To: target, Kind: cb.EdgeGoto, Seq: line.SeqText, Line: code})
				}
			}
		case "PERFORM":
			if k+1 >= len(tokens) {
				continue
			}
			if target, ok := s.resolve(tokens[k+1], known, line, res); ok && !s.tables.isTrace(target) {
				res.Stats.Perform++
				res.Edges = append(res.Edges, cb.CallEdge{From: p.Name, To: target, Kind: cb.EdgePerform, Seq: line.SeqText, Line: code})
			}
			for j := k + 2; j < len(tokens) && tokens[j] != "PERFORM"; j++ {
				if tokens[j] != "THRU" && tokens[j] != "THROUGH" {
					continue
				}
				if j+1 < len(tokens) {
					if target, ok := s.resolve(tokens[j+1], known, line, res); ok && !s.tables.isTrace(target) {
						res.Stats.PerformThru++
						res.Edges = append(res.Edges, cb.CallEdge{From: p.Name, To: target, Kind: cb.EdgePerformThru, Seq: line.SeqText, Line: code})
					}
				}
				break
			}
		}
	}
}

// resolve maps a raw target onto a known paragraph name, retrying without the
// fallback suffix. Targets that look like names but match nothing are
// recorded as unresolved.
func (s *ParagraphScanner) resolve(raw string, known map[string]struct{}, line cb.SourceLine, res *ParagraphResult) (string, bool) {
	base := strings.TrimRight(raw, ".")
	if _, ok := known[base]; ok {
		return base, true
	}
	if suffix := s.tables.opts.FallbackSuffix; strings.HasSuffix(base, suffix) {
		cand := strings.TrimSuffix(base, suffix)
		if _, ok := known[cand]; ok {
			return cand, true
		}
	}
	if s.looksLikeTarget(base) {
		res.Stats.Unresolved++
		s.logger.Debug("call target not found", "target", base, "seq", line.SeqText)
		res.Diagnostics = append(res.Diagnostics,
			diagnostic(ErrUnresolvedCallTarget, line.Seq, "", "target %s", base))
	}
	return "", false
}

func (s *ParagraphScanner) looksLikeTarget(name string) bool {
	if name == "" || s.tables.isTrace(name) || s.tables.IsReserved(name) {
		return false
	}
	if _, ok := s.tables.nonTargetsKW[name]; ok {
		return false
	}
	if !s.tables.headerName.MatchString(name) {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' }) >= 0
}

func (s *ParagraphScanner) cicsExit(p cb.Paragraph, b *cicsBlock, code string, res *ParagraphResult) {
	words := nameWords(b.text)
	if hasWord(words, "XCTL") {
		label := "XCTL"
		if m := s.tables.xctlProgram.FindStringSubmatch(b.text); m != nil {
			label += " " + m[1]
		}
		s.addExit(res, p, cb.ExitXCTL, label, b.seq, code)
	}
	if hasWord(words, "RETURN") {
		label := "RETURN"
		if m := s.tables.transID.FindStringSubmatch(b.text); m != nil {
			label += " " + m[1]
		}
		s.addExit(res, p, cb.ExitReturn, label, b.seq, code)
	}
}

func (s *ParagraphScanner) addExit(res *ParagraphResult, p cb.Paragraph, kind cb.ExitKind, label, seq, code string) {
	res.Stats.Exits++
	res.Exits = append(res.Exits, cb.ExitEvent{Paragraph: p.Name, Kind: kind, Label: label, Seq: seq, Line: code})
}

// ClassifyParagraph tags a paragraph by naming convention.
func ClassifyParagraph(name string) cb.ParagraphClass {
	u := strings.ToUpper(name)
	switch {
	case strings.HasPrefix(u, "000-") || strings.Contains(u, "INIT"):
		return cb.ClassInit
	case strings.Contains(u, "PF"):
		return cb.ClassPFKey
	case strings.HasPrefix(u, "SRHP-"):
		return cb.ClassSRHP
	case strings.Contains(u, "ANO") || strings.Contains(u, "ZZ"):
		return cb.ClassAnomaly
	default:
		return cb.ClassOther
	}
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
