package cobol

// DiagnosticCode classifies recoverable analysis conditions.
type DiagnosticCode string

const (
	DiagMalformedLine        DiagnosticCode = "MALFORMED_LINE"
	DiagUnresolvedCopyModule DiagnosticCode = "UNRESOLVED_COPY_MODULE"
	DiagCopyModuleCycle      DiagnosticCode = "COPY_MODULE_CYCLE"
	DiagUnresolvedCallTarget DiagnosticCode = "UNRESOLVED_CALL_TARGET"
	DiagSequenceOverflow     DiagnosticCode = "SEQUENCE_OVERFLOW"
	DiagSourceNotFound       DiagnosticCode = "SOURCE_NOT_FOUND"
)

// Diagnostic is a recoverable condition recorded on a program model.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
	Seq     int            `json:"seq,omitempty"`
	Module  string         `json:"module,omitempty"`
}

// Degree holds the call fan-in and fan-out of one paragraph.
type Degree struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// GraphReport is the output of call-graph analytics for one program.
type GraphReport struct {
	EntryPoints     []string          `json:"entry_points"`
	Reachable       []string          `json:"reachable"`
	Unreachable     []string          `json:"unreachable"`
	Cycles          [][]string        `json:"cycles,omitempty"`
	MaxChain        int               `json:"max_chain"`
	Chains          [][]string        `json:"chains,omitempty"`
	ChainsTruncated bool              `json:"chains_truncated,omitempty"`
	Degrees         map[string]Degree `json:"degrees"`
}

// ScorePenalties breaks a cleanliness score into its deductions.
type ScorePenalties struct {
	Goto        int `json:"goto"`
	Dead        int `json:"dead"`
	Cycles      int `json:"cycles"`
	Depth       int `json:"depth"`
	Unreachable int `json:"unreachable"`
}

// Total sums every deduction.
func (p ScorePenalties) Total() int {
	return p.Goto + p.Dead + p.Cycles + p.Depth + p.Unreachable
}

// Score is the composite cleanliness rating of a program.
type Score struct {
	Value     int            `json:"value"`
	Label     string         `json:"label"`
	DeadRatio float64        `json:"dead_ratio"`
	Penalties ScorePenalties `json:"penalties"`
}

// ProgramModel owns every fact extracted from one program.
type ProgramModel struct {
	Name       string `json:"name"`
	ProgramID  string `json:"program_id,omitempty"`
	SourcePath string `json:"source_path,omitempty"`

	Lines      []SourceLine `json:"-"`
	Copybooks  []Copybook   `json:"copybooks,omitempty"`
	Dictionary *Dictionary  `json:"dictionary"`

	Paragraphs []Paragraph `json:"paragraphs"`
	Edges      []CallEdge  `json:"edges"`
	Exits      []ExitEvent `json:"exits"`
	EdgeStats  EdgeStats   `json:"edge_stats"`

	Usages         []UsageRecord      `json:"-"`
	VariableUsage  []VariableUsage    `json:"variable_usage"`
	ParagraphUsage []ParagraphUsage   `json:"paragraph_usage"`
	Structures     []StructureSummary `json:"structures,omitempty"`
	Critical       []CriticalVariable `json:"critical,omitempty"`

	Graph       GraphReport  `json:"graph"`
	Score       Score        `json:"score"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// AddDiagnostic appends a recoverable condition to the model.
func (m *ProgramModel) AddDiagnostic(d Diagnostic) {
	m.Diagnostics = append(m.Diagnostics, d)
}

// ParagraphNames returns paragraph names in declaration order.
func (m *ProgramModel) ParagraphNames() []string {
	out := make([]string, len(m.Paragraphs))
	for i, p := range m.Paragraphs {
		out[i] = p.Name
	}
	return out
}
