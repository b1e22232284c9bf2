package callgraph

import (
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// Options bounds the sampled analyses.
type Options struct {
	// EntryDigitOnly keeps only entry points whose name starts with a digit.
	EntryDigitOnly bool `yaml:"entry_digit_only"`
	// CycleSamples caps the number of reported cycles.
	CycleSamples int `yaml:"cycle_samples"`
	// ChainSamples caps the number of example longest chains.
	ChainSamples int `yaml:"chain_samples"`
	// ChainBudget caps the node visits of the longest-chain search.
	ChainBudget int `yaml:"chain_budget"`
}

// DefaultOptions returns the sample sizes used by reports.
func DefaultOptions() Options {
	return Options{CycleSamples: 5, ChainSamples: 5, ChainBudget: 1_000_000}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CycleSamples <= 0 {
		o.CycleSamples = d.CycleSamples
	}
	if o.ChainSamples <= 0 {
		o.ChainSamples = d.ChainSamples
	}
	if o.ChainBudget <= 0 {
		o.ChainBudget = d.ChainBudget
	}
	return o
}

// Analyze runs every graph analysis over one program.
func Analyze(paragraphs []string, edges []cb.CallEdge, opts Options) (*Graph, cb.GraphReport) {
	opts = opts.withDefaults()
	g := New(paragraphs, edges)

	entries := g.EntryPoints(opts.EntryDigitOnly)
	reach := g.Reachable(entries)
	report := cb.GraphReport{
		EntryPoints: g.names(entries),
		Degrees:     g.Degrees(),
		Cycles:      g.Cycles(opts.CycleSamples),
	}
	for id, name := range g.Nodes {
		if reach[id] {
			report.Reachable = append(report.Reachable, name)
		} else {
			report.Unreachable = append(report.Unreachable, name)
		}
	}
	chains := g.LongestChains(entries, opts.ChainSamples, opts.ChainBudget)
	report.MaxChain = chains.Max
	report.Chains = chains.Chains
	report.ChainsTruncated = chains.Truncated
	return g, report
}

// EntryPoints returns paragraphs nobody calls, in paragraph order.
func (g *Graph) EntryPoints(digitOnly bool) []int {
	var out []int
	for id, name := range g.Nodes {
		if g.inCalls[id] > 0 {
			continue
		}
		if digitOnly && !startsWithDigit(name) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Reachable marks every node reachable from entries, entries included.
func (g *Graph) Reachable(entries []int) []bool {
	seen := make([]bool, len(g.Nodes))
	queue := make([]int, 0, len(entries))
	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			queue = append(queue, e)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Adjacency[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// Cycles walks the whole graph depth-first and reports up to limit distinct
// cycles. A cycle is the path suffix from the revisited node, closed by that
// node again.
func (g *Graph) Cycles(limit int) [][]string {
	n := len(g.Nodes)
	visited := make([]bool, n)
	onPath := make([]int, n)
	for i := range onPath {
		onPath[i] = -1
	}
	var (
		path   []int
		cycles [][]string
		seen   = make(map[string]struct{})
	)

	var dfs func(v int)
	dfs = func(v int) {
		if pos := onPath[v]; pos >= 0 {
			if len(cycles) >= limit {
				return
			}
			cycle := g.names(append(append([]int(nil), path[pos:]...), v))
			key := strings.Join(cycle, ">")
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				cycles = append(cycles, cycle)
			}
			return
		}
		if visited[v] {
			return
		}
		visited[v] = true
		onPath[v] = len(path)
		path = append(path, v)
		for _, next := range g.Adjacency[v] {
			dfs(next)
		}
		path = path[:len(path)-1]
		onPath[v] = -1
	}

	for v := 0; v < n; v++ {
		if !visited[v] {
			dfs(v)
		}
	}
	return cycles
}

// ChainResult is the outcome of the longest-chain approximation.
type ChainResult struct {
	Max       int
	Chains    [][]string
	Truncated bool
}

// LongestChains walks depth-first from each entry, halting descent at nodes
// already on the current path, and records the depth of every leaf reached.
// This approximates the longest simple path; budget caps the total visits.
func (g *Graph) LongestChains(entries []int, limit, budget int) ChainResult {
	var (
		res    ChainResult
		path   []int
		steps  int
		onPath = make([]bool, len(g.Nodes))
	)

	var dfs func(v int)
	dfs = func(v int) {
		if onPath[v] {
			return
		}
		if steps >= budget {
			res.Truncated = true
			return
		}
		steps++
		onPath[v] = true
		path = append(path, v)
		if len(g.Adjacency[v]) == 0 {
			switch l := len(path); {
			case l > res.Max:
				res.Max = l
				res.Chains = [][]string{g.names(path)}
			case l == res.Max && len(res.Chains) < limit:
				res.Chains = append(res.Chains, g.names(path))
			}
		} else {
			for _, next := range g.Adjacency[v] {
				dfs(next)
			}
		}
		path = path[:len(path)-1]
		onPath[v] = false
	}

	for _, e := range entries {
		dfs(e)
	}
	return res
}

func startsWithDigit(name string) bool {
	return name != "" && name[0] >= '0' && name[0] <= '9'
}
