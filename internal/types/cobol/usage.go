package cobol

type UsageKind string

const (
	UsageRead      UsageKind = "read"
	UsageWrite     UsageKind = "write"
	UsageCondition UsageKind = "condition"
)

// UsageRecord is one occurrence of a data name in the procedure text.
type UsageRecord struct {
	Variable  string    `json:"variable"` // full path of the first declaration
	Name      string    `json:"name"`
	Kind      UsageKind `json:"kind"`
	IO        bool      `json:"io,omitempty"`
	Paragraph string    `json:"paragraph,omitempty"`
	Line      int       `json:"line"`
}

// VariableUsage aggregates every occurrence of one variable in a program.
type VariableUsage struct {
	Variable   string   `json:"variable"`
	Name       string   `json:"name"`
	Section    Section  `json:"section"`
	Reads      int      `json:"reads"`
	Writes     int      `json:"writes"`
	Conditions int      `json:"conditions"`
	IO         int      `json:"io"`
	Count      int      `json:"count"`
	FirstLine  int      `json:"first_line,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Used       bool     `json:"used"`
	UsedDirect bool     `json:"used_direct"`
}

// ParagraphUsage aggregates the occurrences of one variable in one paragraph.
type ParagraphUsage struct {
	Variable   string `json:"variable"`
	Paragraph  string `json:"paragraph"`
	Reads      int    `json:"reads"`
	Writes     int    `json:"writes"`
	Conditions int    `json:"conditions"`
	IO         int    `json:"io"`
}

// StructureSummary describes one root group (level 01 or 05 without parent).
type StructureSummary struct {
	Section       Section `json:"section"`
	Origin        string  `json:"source"`
	Name          string  `json:"name"`
	Level         int     `json:"level"`
	Children      int     `json:"children"`
	UsedChildren  int     `json:"used_children"`
	HasOccurs     bool    `json:"has_occurs"`
	HasConditions bool    `json:"has_88"`
	Used          bool    `json:"used"`
	UsageTotal    int     `json:"usage_total"`
	FirstLine     int     `json:"first_line,omitempty"`
}

// VariableRole is a naming and picture based guess at what a variable holds.
type VariableRole string

const (
	RoleFlag       VariableRole = "FLAG/STATE"
	RoleCode       VariableRole = "CODE"
	RoleIdentifier VariableRole = "IDENTIFIER"
	RoleDate       VariableRole = "DATE"
	RoleAmount     VariableRole = "AMOUNT"
	RoleNumeric    VariableRole = "NUMERIC"
	RoleOther      VariableRole = ""
)

// CriticalVariable flags variables that steer control flow or I/O.
type CriticalVariable struct {
	Variable   string       `json:"variable"`
	Name       string       `json:"name"`
	Section    Section      `json:"section"`
	Level      int          `json:"level"`
	Pic        string       `json:"pic,omitempty"`
	Paragraphs int          `json:"paragraphs"`
	Reads      int          `json:"reads"`
	Writes     int          `json:"writes"`
	Conditions int          `json:"conditions"`
	IO         int          `json:"io"`
	Count      int          `json:"count"`
	Conds88    int          `json:"nb_88"`
	Critical   bool         `json:"critical"`
	Role       VariableRole `json:"role,omitempty"`
}
