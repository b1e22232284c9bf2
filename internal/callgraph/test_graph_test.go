package callgraph

import (
	"reflect"
	"slices"
	"testing"

	cb "cobolscope/internal/types/cobol"
)

func edge(from, to string, kind cb.EdgeKind) cb.CallEdge {
	return cb.CallEdge{From: from, To: to, Kind: kind}
}

func TestCyclesFindsTriangle(t *testing.T) {
	g := New([]string{"A", "B", "C"}, []cb.CallEdge{
		edge("A", "B", cb.EdgePerform),
		edge("B", "C", cb.EdgePerform),
		edge("C", "A", cb.EdgeGoto),
	})
	cycles := g.Cycles(5)
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle, got %v", cycles)
	}
	for _, want := range []string{"A", "B", "C"} {
		if !slices.Contains(cycles[0], want) {
			t.Fatalf("cycle %v misses %s", cycles[0], want)
		}
	}
	if got := cycles[0]; got[0] != got[len(got)-1] {
		t.Fatalf("cycle must be closed: %v", got)
	}
}

func TestCyclesAreCapped(t *testing.T) {
	var paras []string
	var edges []cb.CallEdge
	for _, p := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		paras = append(paras, p, p+"2")
		edges = append(edges, edge(p, p+"2", cb.EdgeGoto), edge(p+"2", p, cb.EdgeGoto))
	}
	if got := New(paras, edges).Cycles(3); len(got) != 3 {
		t.Fatalf("expected 3 sampled cycles, got %d", len(got))
	}
}

func TestEntryPointsAndReachability(t *testing.T) {
	paras := []string{"000-MAIN", "100-INIT", "EXIT-LABEL", "800-A", "810-B"}
	g := New(paras, []cb.CallEdge{
		edge("000-MAIN", "100-INIT", cb.EdgePerform),
		edge("800-A", "810-B", cb.EdgeGoto),
		edge("810-B", "800-A", cb.EdgeGoto),
		edge("000-MAIN", "UNKNOWN", cb.EdgePerform),
	})

	all := g.names(g.EntryPoints(false))
	if !reflect.DeepEqual(all, []string{"000-MAIN", "EXIT-LABEL"}) {
		t.Fatalf("entry points = %v", all)
	}
	digits := g.EntryPoints(true)
	if !reflect.DeepEqual(g.names(digits), []string{"000-MAIN"}) {
		t.Fatalf("digit entry points = %v", g.names(digits))
	}

	reach := g.Reachable(digits)
	want := []bool{true, true, false, false, false}
	if !reflect.DeepEqual(reach, want) {
		t.Fatalf("reachable = %v", reach)
	}
}

func TestLongestChainsHaltOnPath(t *testing.T) {
	paras := []string{"A", "B", "C", "D", "E"}
	g := New(paras, []cb.CallEdge{
		edge("A", "B", cb.EdgePerform),
		edge("B", "C", cb.EdgePerform),
		edge("C", "D", cb.EdgePerform),
		edge("A", "E", cb.EdgePerform),
		edge("D", "B", cb.EdgeGoto),
	})
	res := g.LongestChains([]int{0}, 5, 1000)
	// D loops back to B, so only A-E ends at a leaf
	if res.Max != 2 {
		t.Fatalf("max = %d, chains %v", res.Max, res.Chains)
	}
	if !reflect.DeepEqual(res.Chains, [][]string{{"A", "E"}}) {
		t.Fatalf("chains = %v", res.Chains)
	}

	g = New(paras, []cb.CallEdge{
		edge("A", "B", cb.EdgePerform),
		edge("B", "C", cb.EdgePerform),
		edge("A", "D", cb.EdgePerform),
		edge("D", "E", cb.EdgePerform),
	})
	res = g.LongestChains([]int{0}, 5, 1000)
	if res.Max != 3 || len(res.Chains) != 2 {
		t.Fatalf("expected two chains of 3, got %d %v", res.Max, res.Chains)
	}
}

func TestLongestChainsBudget(t *testing.T) {
	g := New([]string{"A", "B", "C"}, []cb.CallEdge{
		edge("A", "B", cb.EdgePerform),
		edge("B", "C", cb.EdgePerform),
	})
	res := g.LongestChains([]int{0}, 5, 2)
	if !res.Truncated {
		t.Fatalf("expected truncation")
	}
}

func TestDegrees(t *testing.T) {
	g := New([]string{"A", "B"}, []cb.CallEdge{
		edge("A", "B", cb.EdgePerform),
		edge("A", "B", cb.EdgePerformThru),
	})
	d := g.Degrees()
	if d["B"].In != 2 || d["A"].Out != 1 {
		t.Fatalf("degrees = %v", d)
	}
}

func TestAnalyzeReport(t *testing.T) {
	_, r := Analyze([]string{"000-MAIN", "100-A", "900-X"}, []cb.CallEdge{
		edge("000-MAIN", "100-A", cb.EdgePerform),
	}, Options{EntryDigitOnly: true})
	if !reflect.DeepEqual(r.EntryPoints, []string{"000-MAIN", "900-X"}) {
		t.Fatalf("entry points = %v", r.EntryPoints)
	}
	if len(r.Unreachable) != 0 || r.MaxChain != 2 {
		t.Fatalf("report = %+v", r)
	}
}
