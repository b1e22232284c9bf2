package cobol

import (
	"log/slog"
	"sort"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// UsageScanner records where declared data names occur in the procedure text.
type UsageScanner struct {
	tables     *Tables
	classifier LineClassifier
	logger     *slog.Logger
}

func NewUsageScanner(t *Tables, classifier LineClassifier, logger *slog.Logger) *UsageScanner {
	return &UsageScanner{
		tables:     t,
		classifier: classifier,
		logger:     orDiscard(logger).With("component", "usage"),
	}
}

// UsageResult holds raw occurrences and their aggregates.
type UsageResult struct {
	Records        []cb.UsageRecord
	Variables      []cb.VariableUsage
	ParagraphUsage []cb.ParagraphUsage
}

type usageAgg struct {
	item  int
	usage cb.VariableUsage
	paras map[string]*cb.ParagraphUsage
	order []string
}

// Scan matches every non-88 item name against the procedure text starting at
// the procedure marker, then marks used items and their ancestors on dict.
func (s *UsageScanner) Scan(lines []cb.SourceLine, procedureStart int, dict *cb.Dictionary) UsageResult {
	var res UsageResult
	if dict == nil {
		return res
	}

	byName := make(map[string][]int)
	aggs := make([]*usageAgg, len(dict.Items))
	for i, it := range dict.Items {
		if it.IsCondition() || it.Name == "FILLER" {
			continue
		}
		byName[it.Name] = append(byName[it.Name], i)
		aggs[i] = &usageAgg{
			item:  i,
			usage: cb.VariableUsage{Variable: it.FullPath, Name: it.Name, Section: it.Section},
			paras: make(map[string]*cb.ParagraphUsage),
		}
	}

	if procedureStart >= 0 {
		current := ""
		for idx := procedureStart; idx < len(lines); idx++ {
			line := lines[idx]
			if line.Malformed || line.Comment || line.IsSentinel() {
				continue
			}
			code := line.Code
			if strings.TrimSpace(code) == "" || strings.HasPrefix(strings.TrimLeft(code, " "), "*") {
				continue
			}
			if name, ok := s.classifier.ParagraphHeader(line); ok && idx > procedureStart {
				current = name
			}
			upper := strings.ToUpper(code)
			words := nameWords(upper)
			cond := containsWord(words, s.tables.conditionKW)
			io := containsWord(words, s.tables.fileIOVerbs) ||
				(strings.Contains(upper, "EXEC CICS") && containsWord(words, s.tables.cicsIOVerbs))
			moveAt, toAt := moveBounds(upper)

			for _, w := range words {
				items, ok := byName[w.Text]
				if !ok {
					continue
				}
				kind := cb.UsageRead
				switch {
				case cond:
					kind = cb.UsageCondition
				case moveAt >= 0 && toAt > moveAt && w.Start > toAt:
					kind = cb.UsageWrite
				}
				for _, i := range items {
					rec := cb.UsageRecord{
						Variable:  dict.Items[i].FullPath,
						Name:      w.Text,
						Kind:      kind,
						IO:        io,
						Paragraph: current,
						Line:      line.Seq,
					}
					res.Records = append(res.Records, rec)
					aggs[i].add(rec)
				}
			}
		}
	}

	for _, a := range aggs {
		if a == nil {
			continue
		}
		if a.usage.Count > 0 {
			dict.Items[a.item].UsedDirect = true
			dict.Items[a.item].Used = true
		}
	}
	propagateUsed(dict)

	for _, a := range aggs {
		if a == nil {
			continue
		}
		it := dict.Items[a.item]
		a.usage.Used = it.Used
		a.usage.UsedDirect = it.UsedDirect
		res.Variables = append(res.Variables, a.usage)
		for _, p := range a.order {
			res.ParagraphUsage = append(res.ParagraphUsage, *a.paras[p])
		}
	}
	s.logger.Debug("usage scanned", "records", len(res.Records), "variables", len(res.Variables))
	return res
}

func (a *usageAgg) add(rec cb.UsageRecord) {
	u := &a.usage
	u.Count++
	if u.FirstLine == 0 || (rec.Line > 0 && rec.Line < u.FirstLine) {
		u.FirstLine = rec.Line
	}
	if rec.IO {
		u.IO++
	}
	switch rec.Kind {
	case cb.UsageCondition:
		u.Conditions++
	case cb.UsageWrite:
		u.Writes++
	default:
		u.Reads++
	}
	if rec.Paragraph == "" {
		return
	}
	pu, ok := a.paras[rec.Paragraph]
	if !ok {
		pu = &cb.ParagraphUsage{Variable: u.Variable, Paragraph: rec.Paragraph}
		a.paras[rec.Paragraph] = pu
		a.order = append(a.order, rec.Paragraph)
		u.Paragraphs = append(u.Paragraphs, rec.Paragraph)
	}
	if rec.IO {
		pu.IO++
	}
	switch rec.Kind {
	case cb.UsageCondition:
		pu.Conditions++
	case cb.UsageWrite:
		pu.Writes++
	default:
		pu.Reads++
	}
}

// moveBounds locates "MOVE " and the following " TO " in an upper-cased line.
func moveBounds(upper string) (int, int) {
	moveAt := strings.Index(upper, "MOVE ")
	if moveAt < 0 {
		return -1, -1
	}
	toAt := strings.Index(upper[moveAt:], " TO ")
	if toAt < 0 {
		return moveAt, -1
	}
	return moveAt, moveAt + toAt
}

// propagateUsed marks every strict ancestor of a directly used item as used.
// Counters of ancestors are left untouched.
func propagateUsed(dict *cb.Dictionary) {
	for _, it := range dict.Items {
		if !it.UsedDirect {
			continue
		}
		path := it.FullPath
		for {
			cut := strings.LastIndex(path, "/")
			if cut < 0 {
				break
			}
			path = path[:cut]
			if i, ok := dict.Lookup(it.Section, path); ok {
				dict.Items[i].Used = true
			}
		}
	}
}

// Structures summarizes every root group: a level 01 or 05 item without parent.
func Structures(dict *cb.Dictionary, vars []cb.VariableUsage) []cb.StructureSummary {
	if dict == nil {
		return nil
	}
	usage := make(map[string]cb.VariableUsage, len(vars))
	for _, v := range vars {
		usage[cb.ItemKey(v.Section, v.Variable)] = v
	}

	var out []cb.StructureSummary
	for _, root := range dict.Items {
		if root.ParentPath != "" || (root.Level != 1 && root.Level != 5) {
			continue
		}
		s := cb.StructureSummary{
			Section: root.Section,
			Origin:  root.Origin,
			Name:    root.Name,
			Level:   root.Level,
			Used:    root.Used,
		}
		prefix := root.FullPath + "/"
		for _, it := range dict.Items {
			if it.Section != root.Section {
				continue
			}
			isRoot := it.FullPath == root.FullPath
			if !isRoot && !strings.HasPrefix(it.FullPath, prefix) {
				continue
			}
			if !isRoot {
				s.Children++
				if it.Used {
					s.UsedChildren++
					s.Used = true
				}
			}
			if strings.TrimSpace(it.Occurs) != "" && it.Occurs != "0" {
				s.HasOccurs = true
			}
			if it.IsCondition() {
				s.HasConditions = true
			}
			if v, ok := usage[it.Key()]; ok {
				s.UsageTotal += v.Count
				if v.FirstLine > 0 && (s.FirstLine == 0 || v.FirstLine < s.FirstLine) {
					s.FirstLine = v.FirstLine
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// CriticalVariables flags non-88 items that take part in conditions or I/O,
// span several paragraphs, own condition names, or occur often.
func CriticalVariables(dict *cb.Dictionary, vars []cb.VariableUsage) []cb.CriticalVariable {
	if dict == nil {
		return nil
	}
	usage := make(map[string]cb.VariableUsage, len(vars))
	for _, v := range vars {
		usage[cb.ItemKey(v.Section, v.Variable)] = v
	}
	conds := make(map[string]int)
	for _, it := range dict.Items {
		if it.IsCondition() && it.ParentPath != "" {
			conds[cb.ItemKey(it.Section, it.ParentPath)]++
		}
	}

	var out []cb.CriticalVariable
	for _, it := range dict.Items {
		if it.IsCondition() {
			continue
		}
		v := usage[it.Key()]
		cv := cb.CriticalVariable{
			Variable:   it.FullPath,
			Name:       it.Name,
			Section:    it.Section,
			Level:      it.Level,
			Pic:        it.Pic,
			Paragraphs: len(v.Paragraphs),
			Reads:      v.Reads,
			Writes:     v.Writes,
			Conditions: v.Conditions,
			IO:         v.IO,
			Count:      v.Count,
			Conds88:    conds[it.Key()],
		}
		cv.Critical = cv.Conditions > 0 || cv.IO > 0 || cv.Paragraphs >= 2 || cv.Conds88 > 0 || cv.Count > 5
		root := it.FullPath
		if cut := strings.Index(root, "/"); cut >= 0 {
			root = root[:cut]
		}
		cv.Role = InferRole(it.Name, root, it.Pic)
		out = append(out, cv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Critical && !out[j].Critical
	})
	return out
}

// InferRole guesses what a variable holds from its name, its root group name
// and its picture.
func InferRole(name, root, pic string) cb.VariableRole {
	u := strings.ToUpper(name)
	r := strings.ToUpper(root)
	p := strings.ToUpper(pic)
	switch {
	case strings.Contains(u, "FLAG") || strings.Contains(r, "FLAG") || strings.Contains(u, "IND") ||
		strings.Contains(u, "ETAT") || strings.Contains(u, "STATE"):
		return cb.RoleFlag
	case strings.Contains(u, "CODE") || strings.Contains(u, "CD-"):
		return cb.RoleCode
	case strings.Contains(u, "ID") || strings.Contains(u, "IDENT"):
		return cb.RoleIdentifier
	case strings.Contains(u, "DATE") || strings.Contains(u, "DT-"):
		return cb.RoleDate
	case strings.Contains(u, "MONTANT") || strings.Contains(u, "AMT") || strings.Contains(u, "AMOUNT"):
		return cb.RoleAmount
	case strings.HasPrefix(p, "S9") || strings.HasPrefix(p, "9("):
		return cb.RoleNumeric
	default:
		return cb.RoleOther
	}
}
