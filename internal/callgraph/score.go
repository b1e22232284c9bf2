package callgraph

import (
	"math"

	cb "cobolscope/internal/types/cobol"
)

// Weights are the penalty policy of the cleanliness score.
type Weights struct {
	GotoEach           int     `yaml:"goto_each"`
	GotoCap            int     `yaml:"goto_cap"`
	DeadFactor         float64 `yaml:"dead_factor"`
	DeadCap            int     `yaml:"dead_cap"`
	Cycle              int     `yaml:"cycle"`
	DepthWarn          int     `yaml:"depth_warn"`
	DepthWarnPenalty   int     `yaml:"depth_warn_penalty"`
	DepthSevere        int     `yaml:"depth_severe"`
	DepthSeverePenalty int     `yaml:"depth_severe_penalty"`
	UnreachableEach    int     `yaml:"unreachable_each"`
	UnreachableCap     int     `yaml:"unreachable_cap"`
}

func DefaultWeights() Weights {
	return Weights{
		GotoEach:           2,
		GotoCap:            30,
		DeadFactor:         0.3,
		DeadCap:            25,
		Cycle:              15,
		DepthWarn:          6,
		DepthWarnPenalty:   5,
		DepthSevere:        8,
		DepthSeverePenalty: 10,
		UnreachableEach:    2,
		UnreachableCap:     15,
	}
}

// ScoreInput gathers the program facts the score depends on.
type ScoreInput struct {
	Gotos       int
	Declared    int
	Unused      int
	HasCycles   bool
	MaxChain    int
	HasEntries  bool
	Unreachable int
}

// Score rates a program from 0 to 100. Depth and unreachable penalties only
// apply when the program has entry points.
func Score(in ScoreInput, w Weights) cb.Score {
	var s cb.Score
	if in.Declared > 0 {
		s.DeadRatio = float64(in.Unused) / float64(in.Declared) * 100
	}

	p := &s.Penalties
	p.Goto = capAt(in.Gotos*w.GotoEach, w.GotoCap)
	p.Dead = capAt(int(math.Round(s.DeadRatio*w.DeadFactor)), w.DeadCap)
	if in.HasCycles {
		p.Cycles = w.Cycle
	}
	if in.HasEntries {
		switch {
		case in.MaxChain >= w.DepthSevere:
			p.Depth = w.DepthSeverePenalty
		case in.MaxChain >= w.DepthWarn:
			p.Depth = w.DepthWarnPenalty
		}
		p.Unreachable = capAt(in.Unreachable*w.UnreachableEach, w.UnreachableCap)
	}

	s.Value = max(0, min(100, 100-p.Total()))
	s.Label = Label(s.Value)
	return s
}

// Label names a score band.
func Label(value int) string {
	switch {
	case value >= 80:
		return "Very good"
	case value >= 60:
		return "Acceptable"
	case value >= 40:
		return "Watch"
	default:
		return "Critical"
	}
}

func capAt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
