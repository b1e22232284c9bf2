package cobol

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// DictionaryBuilder parses data declarations and links them into a hierarchy.
type DictionaryBuilder struct {
	tables *Tables
	rules  []cb.ExclusionRule
	logger *slog.Logger
}

func NewDictionaryBuilder(t *Tables, rules []cb.ExclusionRule, logger *slog.Logger) *DictionaryBuilder {
	return &DictionaryBuilder{
		tables: t,
		rules:  normalizeRules(rules),
		logger: orDiscard(logger).With("component", "dictionary"),
	}
}

// DictionaryResult is the declaration arena plus the detected program id.
type DictionaryResult struct {
	ProgramID  string
	Dictionary *cb.Dictionary
	Excluded   int
}

// Build parses every declaration before the procedure marker. program is used
// for exclusion scoping when the listing carries no PROGRAM-ID.
func (b *DictionaryBuilder) Build(program string, lines []cb.SourceLine) DictionaryResult {
	var (
		res     DictionaryResult
		items   []cb.DataItem
		section cb.Section
		origins []string
	)
	origin := func() string {
		if len(origins) == 0 {
			return cb.MainOrigin
		}
		return origins[len(origins)-1]
	}

	for _, line := range lines {
		switch {
		case line.SentinelStart:
			origins = append(origins, line.Module)
			continue
		case line.SentinelEnd:
			if len(origins) > 0 {
				origins = origins[:len(origins)-1]
			}
			continue
		case line.Malformed || line.Comment:
			continue
		}
		code := line.Code
		if strings.TrimSpace(code) == "" || strings.HasPrefix(strings.TrimLeft(code, " "), "*") {
			continue
		}
		if isProcedureMarker(code) {
			break
		}
		if m := b.tables.programID.FindStringSubmatch(code); m != nil {
			res.ProgramID = strings.ToUpper(m[1])
		}
		if m := b.tables.section.FindStringSubmatch(code); m != nil {
			section = cb.Section(strings.ToUpper(m[1]) + " SECTION")
		}

		item, ok := b.parseDeclaration(code)
		if !ok {
			continue
		}
		item.Program = firstNonEmpty(res.ProgramID, program)
		item.Section = section
		item.Origin = origin()
		item.Line = line.Seq
		if b.excluded(item) {
			res.Excluded++
			continue
		}
		items = append(items, item)
	}

	linkHierarchy(items)
	res.Dictionary = cb.NewDictionary(items)
	b.logger.Debug("dictionary built", "program", firstNonEmpty(res.ProgramID, program), "items", len(items), "excluded", res.Excluded)
	return res
}

// parseDeclaration reads one level-number declaration from a code zone.
func (b *DictionaryBuilder) parseDeclaration(code string) (cb.DataItem, bool) {
	m := b.tables.level.FindStringSubmatchIndex(code)
	if m == nil {
		return cb.DataItem{}, false
	}
	levelText := code[m[2]:m[3]]
	level, err := strconv.Atoi(levelText)
	if err != nil {
		return cb.DataItem{}, false
	}
	item := cb.DataItem{
		Level:     level,
		LevelText: levelText,
		Name:      strings.ToUpper(code[m[4]:m[5]]),
	}
	rest := strings.TrimSpace(code[m[1]:])
	if _, clause := clauseWords[item.Name]; clause {
		// unnamed item: "05 PIC X(10)."
		item.Name = "FILLER"
		rest = strings.TrimSpace(code[m[4]:])
	}

	if r := b.tables.redefines.FindStringSubmatch(rest); r != nil {
		item.Redefines = strings.ToUpper(r[1])
	}
	if p := b.tables.pic.FindStringSubmatch(rest); p != nil {
		item.Pic = cutPicture(p[1])
	}
	if u := b.tables.usage.FindStringSubmatch(rest); u != nil {
		item.Usage = strings.ToUpper(u[1])
	} else if u := b.tables.bareUsage.FindStringSubmatch(rest); u != nil {
		item.Usage = strings.ToUpper(u[1])
	}
	if o := b.tables.occurs.FindStringSubmatch(rest); o != nil {
		item.Occurs = o[1]
		if o[2] != "" {
			item.Occurs = o[2]
		}
		item.OccursDependsOn = strings.ToUpper(o[3])
	}
	if v := b.tables.value.FindStringSubmatch(rest); v != nil {
		value := strings.TrimSpace(v[1])
		if idx := strings.Index(value, "."); idx >= 0 {
			value = strings.TrimSpace(value[:idx])
		}
		item.Value = value
	}
	return item, true
}

var clauseWords = wordSet("PIC", "PICTURE", "VALUE", "VALUES", "REDEFINES", "OCCURS", "USAGE")

var pictureStops = []string{"USAGE", "OCCURS", "REDEFINES", "VALUE", "SYNC", "SIGN", "COMP", "BINARY", "PACKED-DECIMAL", "INDEX", "POINTER", "DISPLAY"}

// cutPicture trims a captured picture string at the next clause keyword and
// drops the statement period.
func cutPicture(raw string) string {
	pic := strings.TrimSpace(raw)
	upper := strings.ToUpper(pic)
	cut := len(pic)
	for _, kw := range pictureStops {
		if idx := strings.Index(upper, " "+kw); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	pic = strings.TrimSpace(pic[:cut])
	return strings.TrimRight(pic, ".")
}

type stackEntry struct {
	level    int
	name     string
	fullPath string
}

// linkHierarchy assigns parents and full paths in declaration order. Level 88
// attaches to the latest non-88 item; 66 and 77 stand alone and reset the
// stack. Paths repeated within a section get a "#n" ordinal suffix.
func linkHierarchy(items []cb.DataItem) {
	var (
		stack   []stackEntry
		last    *stackEntry
		section cb.Section
		used    = make(map[string]int)
	)
	unique := func(sec cb.Section, path string) string {
		key := cb.ItemKey(sec, path)
		n := used[key]
		used[key] = n + 1
		if n == 0 {
			return path
		}
		return fmt.Sprintf("%s#%d", path, n+1)
	}

	for i := range items {
		it := &items[i]
		if it.Section != section {
			section = it.Section
			stack = stack[:0]
			last = nil
		}

		switch it.Level {
		case 88:
			if last != nil {
				it.ParentName = last.name
				it.ParentPath = last.fullPath
				it.FullPath = unique(section, last.fullPath+"/"+it.Name)
			} else {
				it.FullPath = unique(section, it.Name)
			}
			continue
		case 66, 77:
			stack = stack[:0]
			it.FullPath = unique(section, it.Name)
		default:
			for len(stack) > 0 && stack[len(stack)-1].level >= it.Level {
				stack = stack[:len(stack)-1]
			}
			path := it.Name
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				it.ParentName = top.name
				it.ParentPath = top.fullPath
				path = top.fullPath + "/" + it.Name
			}
			it.FullPath = unique(section, path)
			stack = append(stack, stackEntry{level: it.Level, name: it.Name, fullPath: it.FullPath})
		}
		last = &stackEntry{level: it.Level, name: it.Name, fullPath: it.FullPath}
	}
}

func normalizeRules(rules []cb.ExclusionRule) []cb.ExclusionRule {
	out := make([]cb.ExclusionRule, 0, len(rules))
	for _, r := range rules {
		pattern := strings.ToUpper(strings.TrimSpace(r.Pattern))
		if pattern == "" {
			continue
		}
		scope := strings.ToUpper(strings.TrimSpace(r.Scope))
		if scope == "" {
			scope = cb.ExclusionScopeAll
		}
		match := cb.ExclusionMatch(strings.ToUpper(strings.TrimSpace(string(r.Match))))
		if match == "" {
			match = cb.MatchExact
		}
		out = append(out, cb.ExclusionRule{Scope: scope, Match: match, Pattern: pattern})
	}
	return out
}

func (b *DictionaryBuilder) excluded(item cb.DataItem) bool {
	program := strings.ToUpper(item.Program)
	for _, r := range b.rules {
		if r.Scope != cb.ExclusionScopeAll && r.Scope != program {
			continue
		}
		switch r.Match {
		case cb.MatchExact:
			if item.Name == r.Pattern {
				return true
			}
		case cb.MatchPrefix:
			if strings.HasPrefix(item.Name, r.Pattern) {
				return true
			}
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
