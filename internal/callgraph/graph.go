package callgraph

import (
	"sort"

	cb "cobolscope/internal/types/cobol"
)

// Graph is a paragraph call graph. Node ids follow paragraph order; Adjacency
// holds deduplicated, sorted successor ids.
type Graph struct {
	Nodes     []string
	Adjacency [][]int

	ids     map[string]int
	inCalls []int
}

// New builds the graph of one program. Edges naming unknown paragraphs are
// ignored.
func New(paragraphs []string, edges []cb.CallEdge) *Graph {
	g := &Graph{
		Nodes:     append([]string(nil), paragraphs...),
		Adjacency: make([][]int, len(paragraphs)),
		ids:       make(map[string]int, len(paragraphs)),
		inCalls:   make([]int, len(paragraphs)),
	}
	for i, name := range paragraphs {
		if _, dup := g.ids[name]; !dup {
			g.ids[name] = i
		}
	}

	adjMaps := make([]map[int]struct{}, len(paragraphs))
	for _, e := range edges {
		from, ok := g.ids[e.From]
		if !ok {
			continue
		}
		to, ok := g.ids[e.To]
		if !ok {
			continue
		}
		g.inCalls[to]++
		if adjMaps[from] == nil {
			adjMaps[from] = make(map[int]struct{})
		}
		adjMaps[from][to] = struct{}{}
	}
	for i, m := range adjMaps {
		for to := range m {
			g.Adjacency[i] = append(g.Adjacency[i], to)
		}
		sort.Ints(g.Adjacency[i])
	}
	return g
}

// ID returns the node id of a paragraph name.
func (g *Graph) ID(name string) (int, bool) {
	id, ok := g.ids[name]
	return id, ok
}

func (g *Graph) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Nodes[id]
	}
	return out
}

// Degrees returns incoming call count and distinct callee count per paragraph.
func (g *Graph) Degrees() map[string]cb.Degree {
	out := make(map[string]cb.Degree, len(g.Nodes))
	for i, name := range g.Nodes {
		out[name] = cb.Degree{In: g.inCalls[i], Out: len(g.Adjacency[i])}
	}
	return out
}
