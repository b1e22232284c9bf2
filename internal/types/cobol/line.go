package cobol

// Column layout of a fixed-format listing (0-based offsets).
const (
	LineWidth     = 80
	SeqEnd        = 6  // columns 1-6
	IndicatorCol  = 6  // column 7
	CodeStart     = 7  // column 8
	CodeEnd       = 72 // column 72 inclusive
	MaxSequence   = 999999
	MainOrigin    = "MAIN"
	SentinelStart = "*COPYBOOK "
	SentinelEnd   = "*END COPYBOOK"
)

// SourceLine is one classified physical line. It is never mutated after
// classification.
type SourceLine struct {
	Seq       int    `json:"seq"`
	SeqText   string `json:"seq_text"`
	Indicator byte   `json:"indicator"`
	Code      string `json:"code"`
	Raw       string `json:"raw"`

	Comment       bool   `json:"comment,omitempty"`
	SentinelStart bool   `json:"sentinel_start,omitempty"`
	SentinelEnd   bool   `json:"sentinel_end,omitempty"`
	Module        string `json:"module,omitempty"` // copy-module name carried by sentinel lines
	Malformed     bool   `json:"malformed,omitempty"`
}

// IsSentinel reports whether the line is one of the copy-module markers.
func (l SourceLine) IsSentinel() bool { return l.SentinelStart || l.SentinelEnd }

// Copybook records one resolved copy-module inclusion.
type Copybook struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	Lines []string `json:"-"`
}
