package cobol

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"cobolscope/internal/callgraph"
	"cobolscope/internal/safeio"
	cb "cobolscope/internal/types/cobol"
)

// AnalyzerConfig wires the stages of one Analyzer.
type AnalyzerConfig struct {
	Options    Options
	Graph      callgraph.Options
	Weights    callgraph.Weights
	Exclusions []cb.ExclusionRule

	SequenceStart int
	Encoding      string

	// CopybookDirs is the copy-module search path. Source, when set, replaces
	// the directory resolver.
	CopybookDirs  []string
	CacheEntries  int
	Source        CopybookSource
	DisableExpand bool
}

// Analyzer runs the full per-program pipeline. It holds only immutable
// tables and the thread-safe copybook resolver, so one Analyzer may serve
// many goroutines.
type Analyzer struct {
	tables     *Tables
	classifier LineClassifier
	normalizer *Normalizer
	expander   *Expander
	dictionary *DictionaryBuilder
	paragraphs *ParagraphScanner
	usage      *UsageScanner

	graphOpts callgraph.Options
	weights   callgraph.Weights
	encoding  string
	logger    *slog.Logger
}

func NewAnalyzer(cfg AnalyzerConfig, logger *slog.Logger) (*Analyzer, error) {
	logger = orDiscard(logger)
	t := NewTables(cfg.Options)
	cls := NewColumnClassifier(t)

	var source CopybookSource
	switch {
	case cfg.DisableExpand:
	case cfg.Source != nil:
		source = cfg.Source
	case len(cfg.CopybookDirs) > 0:
		r, err := NewResolver(t, cfg.CopybookDirs, cfg.Encoding, cfg.CacheEntries, logger)
		if err != nil {
			return nil, err
		}
		source = r
	}

	w := cfg.Weights
	if w == (callgraph.Weights{}) {
		w = callgraph.DefaultWeights()
	}
	enc := cfg.Encoding
	if strings.TrimSpace(enc) == "" {
		enc = safeio.DefaultEncoding
	}

	return &Analyzer{
		tables:     t,
		classifier: cls,
		normalizer: NewNormalizer(t, cls, cfg.SequenceStart, logger),
		expander:   NewExpander(t, cls, source, logger),
		dictionary: NewDictionaryBuilder(t, cfg.Exclusions, logger),
		paragraphs: NewParagraphScanner(t, cls, logger),
		usage:      NewUsageScanner(t, cls, logger),
		graphOpts:  cfg.Graph,
		weights:    w,
		encoding:   enc,
		logger:     logger.With("component", "analyzer"),
	}, nil
}

func (a *Analyzer) Tables() *Tables { return a.tables }

func (a *Analyzer) Classifier() LineClassifier { return a.classifier }

// Encoding is the source encoding used by AnalyzeFile.
func (a *Analyzer) Encoding() string { return a.encoding }

// Normalize filters and renumbers a listing without expanding copy-modules.
func (a *Analyzer) Normalize(name, text string) NormalizeResult {
	return a.normalizer.Normalize(name, SplitLines(text))
}

// Expand inlines copy-modules and normalizes the result.
func (a *Analyzer) Expand(name, text string) (NormalizeResult, ExpandResult) {
	exp := a.expander.Expand(name, SplitLines(text))
	norm := a.normalizer.Normalize(name, exp.Lines)
	diags := make([]cb.Diagnostic, 0, len(exp.Diagnostics)+len(norm.Diagnostics))
	diags = append(diags, exp.Diagnostics...)
	norm.Diagnostics = append(diags, norm.Diagnostics...)
	return norm, exp
}

// AnalyzeFile reads one listing from fsys and analyzes it. A missing file
// yields an error wrapping ErrSourceNotFound.
func (a *Analyzer) AnalyzeFile(ctx context.Context, fsys *safeio.SafeFS, rel string) (*cb.ProgramModel, error) {
	text, err := fsys.ReadText(rel, a.encoding)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", rel, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	m, err := a.Analyze(ctx, ProgramName(rel), text)
	if err != nil {
		return nil, err
	}
	m.SourcePath = rel
	return m, nil
}

// Analyze runs every stage over one decoded listing.
func (a *Analyzer) Analyze(ctx context.Context, name, text string) (*cb.ProgramModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &cb.ProgramModel{Name: name}

	norm, exp := a.Expand(name, text)
	m.Copybooks = exp.Copybooks
	m.Diagnostics = append(m.Diagnostics, norm.Diagnostics...)

	m.Lines = make([]cb.SourceLine, len(norm.Lines))
	for i, l := range norm.Lines {
		m.Lines[i] = a.classifier.Classify(l)
	}

	dict := a.dictionary.Build(name, m.Lines)
	m.ProgramID = dict.ProgramID
	m.Dictionary = dict.Dictionary

	para := a.paragraphs.Scan(m.Lines)
	m.Paragraphs = para.Paragraphs
	m.Edges = para.Edges
	m.Exits = para.Exits
	m.EdgeStats = para.Stats
	m.Diagnostics = append(m.Diagnostics, para.Diagnostics...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	use := a.usage.Scan(m.Lines, para.ProcedureStart, m.Dictionary)
	m.Usages = use.Records
	m.VariableUsage = use.Variables
	m.ParagraphUsage = use.ParagraphUsage
	m.Structures = Structures(m.Dictionary, use.Variables)
	m.Critical = CriticalVariables(m.Dictionary, use.Variables)

	_, m.Graph = callgraph.Analyze(m.ParagraphNames(), m.Edges, a.graphOpts)
	m.Score = callgraph.Score(a.scoreInput(m), a.weights)

	a.logger.Info("program analyzed",
		"program", name,
		"lines", len(m.Lines),
		"items", len(m.Dictionary.Items),
		"paragraphs", len(m.Paragraphs),
		"edges", len(m.Edges),
		"score", m.Score.Value,
		"diagnostics", len(m.Diagnostics),
	)
	return m, nil
}

func (a *Analyzer) scoreInput(m *cb.ProgramModel) callgraph.ScoreInput {
	in := callgraph.ScoreInput{
		Gotos:       m.EdgeStats.Goto,
		HasCycles:   len(m.Graph.Cycles) > 0,
		MaxChain:    m.Graph.MaxChain,
		HasEntries:  len(m.Graph.EntryPoints) > 0,
		Unreachable: len(m.Graph.Unreachable),
	}
	for _, it := range m.Dictionary.Items {
		if it.IsCondition() || it.Name == "FILLER" {
			continue
		}
		in.Declared++
		if !it.Used {
			in.Unused++
		}
	}
	return in
}

// Listing returns the normalized, expanded listing of a model.
func Listing(m *cb.ProgramModel) string {
	var b strings.Builder
	for _, l := range m.Lines {
		b.WriteString(l.Raw)
		b.WriteByte('\n')
	}
	return b.String()
}

// ProgramName derives a program name from a listing path.
func ProgramName(rel string) string {
	base := path.Base(strings.ReplaceAll(rel, `\`, "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToUpper(base)
}
