package callgraph

import "testing"

func TestScoreClean(t *testing.T) {
	s := Score(ScoreInput{Declared: 10, HasEntries: true, MaxChain: 3}, DefaultWeights())
	if s.Value != 100 || s.Label != "Very good" {
		t.Fatalf("score = %+v", s)
	}
}

func TestScorePenaltiesAreCapped(t *testing.T) {
	s := Score(ScoreInput{
		Gotos:       40,
		Declared:    10,
		Unused:      10,
		HasCycles:   true,
		MaxChain:    9,
		HasEntries:  true,
		Unreachable: 20,
	}, DefaultWeights())
	p := s.Penalties
	if p.Goto != 30 || p.Dead != 25 || p.Cycles != 15 || p.Depth != 10 || p.Unreachable != 15 {
		t.Fatalf("penalties = %+v", p)
	}
	if s.Value != 5 || s.Label != "Critical" {
		t.Fatalf("score = %+v", s)
	}
	if s.DeadRatio != 100 {
		t.Fatalf("dead ratio = %v", s.DeadRatio)
	}
}

func TestScoreIgnoresDepthWithoutEntries(t *testing.T) {
	s := Score(ScoreInput{MaxChain: 12, Unreachable: 5}, DefaultWeights())
	if s.Penalties.Depth != 0 || s.Penalties.Unreachable != 0 {
		t.Fatalf("penalties = %+v", s.Penalties)
	}
}

func TestScoreDepthBands(t *testing.T) {
	w := DefaultWeights()
	if got := Score(ScoreInput{HasEntries: true, MaxChain: 6}, w).Penalties.Depth; got != 5 {
		t.Fatalf("depth 6 penalty = %d", got)
	}
	if got := Score(ScoreInput{HasEntries: true, MaxChain: 8}, w).Penalties.Depth; got != 10 {
		t.Fatalf("depth 8 penalty = %d", got)
	}
}

func TestLabelBands(t *testing.T) {
	cases := map[int]string{100: "Very good", 80: "Very good", 79: "Acceptable", 60: "Acceptable", 45: "Watch", 39: "Critical", 0: "Critical"}
	for v, want := range cases {
		if got := Label(v); got != want {
			t.Fatalf("Label(%d) = %q, want %q", v, got, want)
		}
	}
}
