package cobol

import (
	"regexp"
	"strings"
)

// Options carries the naming conventions of the analyzed code base.
type Options struct {
	// DebugPrefix marks lines and copy-modules injected by a debugger.
	DebugPrefix string `yaml:"debug_prefix"`
	// TracePrefix marks no-op trace paragraphs excluded from PERFORM edges.
	TracePrefix string `yaml:"trace_prefix"`
	// FallbackSuffix is stripped from unresolved call targets before giving up.
	FallbackSuffix string `yaml:"fallback_suffix"`
}

// DefaultOptions returns the conventions of the reference code base.
func DefaultOptions() Options {
	return Options{
		DebugPrefix:    "SMASH",
		TracePrefix:    "SMAD-",
		FallbackSuffix: "-F",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.DebugPrefix) == "" {
		o.DebugPrefix = d.DebugPrefix
	}
	if strings.TrimSpace(o.TracePrefix) == "" {
		o.TracePrefix = d.TracePrefix
	}
	if strings.TrimSpace(o.FallbackSuffix) == "" {
		o.FallbackSuffix = d.FallbackSuffix
	}
	o.DebugPrefix = strings.ToUpper(strings.TrimSpace(o.DebugPrefix))
	o.TracePrefix = strings.ToUpper(strings.TrimSpace(o.TracePrefix))
	o.FallbackSuffix = strings.ToUpper(strings.TrimSpace(o.FallbackSuffix))
	return o
}

// Tables holds the compiled patterns and keyword sets shared by every stage.
// A Tables value is immutable once built and safe for concurrent use.
type Tables struct {
	opts Options

	reserved     map[string]struct{}
	conditionKW  map[string]struct{}
	fileIOVerbs  map[string]struct{}
	cicsIOVerbs  map[string]struct{}
	nonTargetsKW map[string]struct{}

	programID   *regexp.Regexp
	section     *regexp.Regexp
	level       *regexp.Regexp
	redefines   *regexp.Regexp
	pic         *regexp.Regexp
	usage       *regexp.Regexp
	bareUsage   *regexp.Regexp
	occurs      *regexp.Regexp
	value       *regexp.Regexp
	replacing   *regexp.Regexp
	depending   *regexp.Regexp
	xctlProgram *regexp.Regexp
	transID     *regexp.Regexp
	headerName  *regexp.Regexp
}

// NewTables compiles every pattern once.
func NewTables(opts Options) *Tables {
	return &Tables{
		opts: opts.withDefaults(),
		reserved: wordSet(
			"IF", "MOVE", "PERFORM", "CALL", "EVALUATE", "ADD", "SUBTRACT",
			"MULTIPLY", "DIVIDE", "COMPUTE", "GO", "DISPLAY", "ACCEPT",
			"EXEC", "OPEN", "CLOSE", "READ", "WRITE", "REWRITE", "DELETE",
			"SEARCH", "SET", "STRING", "UNSTRING", "INSPECT", "EXIT",
			"CONTINUE", "GOBACK", "STOP", "ELSE", "WHEN", "INITIALIZE",
			"RETURN", "RELEASE", "SORT", "MERGE", "START", "CANCEL",
			"DECLARATIVES",
		),
		conditionKW:  wordSet("IF", "EVALUATE", "WHEN", "UNTIL", "WHILE"),
		fileIOVerbs:  wordSet("READ", "WRITE", "REWRITE", "DELETE", "OPEN", "CLOSE"),
		cicsIOVerbs:  wordSet("SEND", "RECEIVE", "XCTL", "LINK"),
		nonTargetsKW: wordSet("UNTIL", "VARYING", "WITH", "TEST", "TIMES", "FOREVER"),

		programID:   regexp.MustCompile(`(?i)\bPROGRAM-ID\.?\s+([A-Z0-9\-]+)`),
		section:     regexp.MustCompile(`(?i)\b(WORKING-STORAGE|LINKAGE|FILE|LOCAL-STORAGE)\s+SECTION\.?`),
		level:       regexp.MustCompile(`(?i)^\s*(0[1-9]|[1-4][0-9]|66|77|88)\s+([A-Z0-9\-]+)`),
		redefines:   regexp.MustCompile(`(?i)\bREDEFINES\s+([A-Z0-9\-]+)`),
		pic:         regexp.MustCompile(`(?i)\bPIC(?:TURE)?\s+(?:IS\s+)?([A-Z0-9()V+\-.,'\s]+)`),
		usage:       regexp.MustCompile(`(?i)\bUSAGE\s+(?:IS\s+)?([A-Z0-9\-]+)`),
		bareUsage:   regexp.MustCompile(`(?i)(?:^|\s)(COMP(?:UTATIONAL)?(?:-[1-5X])?|BINARY|PACKED-DECIMAL|INDEX|POINTER)(?:[\s.]|$)`),
		occurs:      regexp.MustCompile(`(?i)\bOCCURS\s+([0-9]+)(?:\s+TO\s+([0-9]+))?(?:\s+TIMES)?(?:\s+DEPENDING\s+ON\s+([A-Z0-9\-]+))?`),
		value:       regexp.MustCompile(`(?i)\bVALUE\s+(.+)`),
		replacing:   regexp.MustCompile(`(?is)==(.*?)==\s+BY\s+==(.*?)==`),
		depending:   regexp.MustCompile(`:DEPENDING ON [A-Z0-9\-]+:`),
		xctlProgram: regexp.MustCompile(`(?i)PROGRAM\s*\(\s*['"]([^'"]+)['"]\s*\)`),
		transID:     regexp.MustCompile(`(?i)TRANSID\s*\(\s*['"]([^'"]+)['"]\s*\)`),
		headerName:  regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`),
	}
}

// Options returns the normalized conventions the tables were built with.
func (t *Tables) Options() Options { return t.opts }

// IsReserved reports whether an upper-cased word is a verb or END-xxx scope
// terminator that can never name a paragraph.
func (t *Tables) IsReserved(word string) bool {
	if strings.HasPrefix(word, "END-") {
		return true
	}
	_, ok := t.reserved[word]
	return ok
}

func (t *Tables) hasDebugPrefix(s string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimLeft(s, " \t")), t.opts.DebugPrefix)
}

func (t *Tables) isTrace(name string) bool {
	return strings.HasPrefix(name, t.opts.TracePrefix)
}

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// wordSpan is one maximal run of name characters inside a line.
type wordSpan struct {
	Text  string
	Start int
}

func isNameByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
}

// nameWords splits s into maximal runs of letters, digits and dashes. A data
// name occurs in s exactly when it equals one of these runs.
func nameWords(s string) []wordSpan {
	var out []wordSpan
	start := -1
	for i := 0; i < len(s); i++ {
		if isNameByte(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, wordSpan{Text: s[start:i], Start: start})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, wordSpan{Text: s[start:], Start: start})
	}
	return out
}

func containsWord(words []wordSpan, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w.Text]; ok {
			return true
		}
	}
	return false
}

func hasWord(words []wordSpan, word string) bool {
	for _, w := range words {
		if w.Text == word {
			return true
		}
	}
	return false
}
