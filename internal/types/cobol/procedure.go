package cobol

// ParagraphClass is a coarse naming-convention tag used by diagram tooling.
type ParagraphClass string

const (
	ClassInit    ParagraphClass = "init"
	ClassPFKey   ParagraphClass = "pfkey"
	ClassSRHP    ParagraphClass = "srhp"
	ClassAnomaly ParagraphClass = "anomaly"
	ClassOther   ParagraphClass = "other"
)

// Paragraph is a named block of the procedure text. Start and End index the
// program's line slice; the span is [Start, End).
type Paragraph struct {
	Order int            `json:"order"`
	Seq   string         `json:"seq"`
	Name  string         `json:"name"`
	Start int            `json:"start"`
	End   int            `json:"end"`
	Class ParagraphClass `json:"class"`
}

type EdgeKind string

const (
	EdgeGoto        EdgeKind = "GOTO"
	EdgePerform     EdgeKind = "PERFORM"
	EdgePerformThru EdgeKind = "PERFORM_THRU"
)

// CallEdge is a resolved intra-program control transfer.
type CallEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
	Seq  string   `json:"seq"`
	Line string   `json:"line"`
}

type ExitKind string

const (
	ExitXCTL    ExitKind = "XCTL"
	ExitReturn  ExitKind = "RETURN"
	ExitGoback  ExitKind = "GOBACK"
	ExitStopRun ExitKind = "STOP_RUN"
)

// ExitEvent is a program or transaction exit seen inside a paragraph.
type ExitEvent struct {
	Paragraph string   `json:"paragraph"`
	Kind      ExitKind `json:"kind"`
	Label     string   `json:"label"`
	Seq       string   `json:"seq"`
	Line      string   `json:"line"`
}

// EdgeStats counts control statements seen while scanning paragraphs.
type EdgeStats struct {
	Goto        int `json:"goto"`
	Perform     int `json:"perform"`
	PerformThru int `json:"perform_thru"`
	Exits       int `json:"exits"`
	Unresolved  int `json:"unresolved"`
}
