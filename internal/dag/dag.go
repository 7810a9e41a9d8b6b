// Package dag provides directed graph operations for module dependencies.
// It supports weighted edges, strongly connected components, longest-path
// layering over the condensation, cycle breaking and impact queries.
package dag

import (
	"fmt"
	"sort"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (file path)
	ID string
	// Data holds arbitrary node data
	Data interface{}
}

// Edge is a directed, weighted edge. From depends on To.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

type edgeKey struct{ from, to string }

// Graph represents a directed graph that may contain cycles.
// Neighbor lists are kept sorted so traversals are deterministic.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // from -> targets (dependencies)
	parents map[string][]string // target -> sources (dependents)
	weights map[edgeKey]int
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
		weights: make(map[edgeKey]int),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else {
		// Update data if node already exists
		g.nodes[id].Data = data
	}
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from -> to. Adding an existing edge
// increments its weight.
func (g *Graph) AddEdge(from, to string) error {
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("source node %q does not exist", from)
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("target node %q does not exist", to)
	}
	if from == to {
		return fmt.Errorf("self-loop detected: %s", from)
	}

	key := edgeKey{from, to}
	if g.weights[key] == 0 {
		g.edges[from] = insertSorted(g.edges[from], to)
		g.parents[to] = insertSorted(g.parents[to], from)
	}
	g.weights[key]++
	return nil
}

// RemoveEdge deletes the edge from -> to regardless of its weight.
func (g *Graph) RemoveEdge(from, to string) {
	key := edgeKey{from, to}
	if g.weights[key] == 0 {
		return
	}
	delete(g.weights, key)
	g.edges[from] = removeString(g.edges[from], to)
	g.parents[to] = removeString(g.parents[to], from)
}

// Weight returns the weight of from -> to, 0 when absent.
func (g *Graph) Weight(from, to string) int {
	return g.weights[edgeKey{from, to}]
}

// GetParents returns the sources of edges into id (its dependents).
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the targets of edges out of id (its dependencies).
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// InDegree returns the number of distinct sources pointing at id.
func (g *Graph) InDegree(id string) int {
	return len(g.parents[id])
}

// OutDegree returns the number of distinct targets id points at.
func (g *Graph) OutDegree(id string) int {
	return len(g.edges[id])
}

// NodeIDs returns all node ids in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.weights)
}

// Edges returns every edge sorted by (From, To).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.weights))
	for _, from := range g.NodeIDs() {
		for _, to := range g.edges[from] {
			out = append(out, Edge{From: from, To: to, Weight: g.weights[edgeKey{from, to}]})
		}
	}
	return out
}

// Clone returns a deep copy of the graph structure. Node data is shared.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for id, n := range g.nodes {
		c.AddNode(id, n.Data)
	}
	for id, targets := range g.edges {
		c.edges[id] = append([]string{}, targets...)
	}
	for id, sources := range g.parents {
		c.parents[id] = append([]string{}, sources...)
	}
	for k, w := range g.weights {
		c.weights[k] = w
	}
	return c
}

// StronglyConnectedComponents returns every SCC (singletons included) using
// Tarjan's algorithm over sorted ids. Members are sorted and components are
// ordered by their first member.
func (g *Graph) StronglyConnectedComponents() [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var components [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sort.Strings(comp)
			components = append(components, comp)
		}
	}

	for _, id := range g.NodeIDs() {
		if _, seen := indices[id]; !seen {
			strongConnect(id)
		}
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// Cycles returns the SCCs with more than one member.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			cycles = append(cycles, comp)
		}
	}
	return cycles
}

// Depths assigns every node its longest-path distance from a source, where a
// source is a node without parents. Cycles are collapsed first so all members
// of a component share one depth. Kahn's algorithm drives the relaxation.
func (g *Graph) Depths() map[string]int {
	comps := g.StronglyConnectedComponents()
	compOf := make(map[string]int, len(g.nodes))
	for i, comp := range comps {
		for _, id := range comp {
			compOf[id] = i
		}
	}

	// Condensed adjacency, deduplicated per component pair.
	succ := make([][]int, len(comps))
	indeg := make([]int, len(comps))
	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		a, b := compOf[e.From], compOf[e.To]
		if a == b || seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		succ[a] = append(succ[a], b)
		indeg[b]++
	}

	depth := make([]int, len(comps))
	queue := make([]int, 0, len(comps))
	for i := range comps {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range succ[c] {
			if depth[c]+1 > depth[d] {
				depth[d] = depth[c] + 1
			}
			indeg[d]--
			if indeg[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	out := make(map[string]int, len(g.nodes))
	for id, c := range compOf {
		out[id] = depth[c]
	}
	return out
}

// BreakCycles removes edges until the graph is acyclic and returns them in
// removal order. Each round cuts one edge inside every remaining cycle: the
// edge whose target has the lowest score, ties broken by target then source.
// The receiver is modified; call Clone first to keep the original.
func (g *Graph) BreakCycles(score func(id string) int) []Edge {
	var removed []Edge
	for {
		cycles := g.Cycles()
		if len(cycles) == 0 {
			return removed
		}
		for _, comp := range cycles {
			members := make(map[string]bool, len(comp))
			for _, id := range comp {
				members[id] = true
			}

			var best *Edge
			for _, from := range comp {
				for _, to := range g.edges[from] {
					if !members[to] {
						continue
					}
					cand := Edge{From: from, To: to, Weight: g.Weight(from, to)}
					if best == nil || lessCut(cand, *best, score) {
						b := cand
						best = &b
					}
				}
			}
			if best == nil {
				continue
			}
			g.RemoveEdge(best.From, best.To)
			removed = append(removed, *best)
		}
	}
}

func lessCut(a, b Edge, score func(string) int) bool {
	sa, sb := score(a.To), score(b.To)
	if sa != sb {
		return sa < sb
	}
	if a.To != b.To {
		return a.To < b.To
	}
	return a.From < b.From
}

// GetAffectedNodes returns the given nodes plus everything that transitively
// depends on them.
func (g *Graph) GetAffectedNodes(changedIDs []string) []string {
	affected := make(map[string]bool)

	var markAffected func(id string)
	markAffected = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, parentID := range g.parents[id] {
			markAffected(parentID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			markAffected(id)
		}
	}

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// GetUpstreamNodes returns everything id transitively depends on.
func (g *Graph) GetUpstreamNodes(id string) []string {
	upstream := make(map[string]bool)

	var markUpstream func(nodeID string)
	markUpstream = func(nodeID string) {
		for _, childID := range g.edges[nodeID] {
			if !upstream[childID] && childID != id {
				upstream[childID] = true
				markUpstream(childID)
			}
		}
	}

	markUpstream(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

func insertSorted(slice []string, s string) []string {
	i := sort.SearchStrings(slice, s)
	if i < len(slice) && slice[i] == s {
		return slice
	}
	slice = append(slice, "")
	copy(slice[i+1:], slice[i:])
	slice[i] = s
	return slice
}

func removeString(slice []string, s string) []string {
	i := sort.SearchStrings(slice, s)
	if i < len(slice) && slice[i] == s {
		return append(slice[:i], slice[i+1:]...)
	}
	return slice
}
