package dag

import (
	"reflect"
	"testing"
)

func newGraph(ids ...string) *Graph {
	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id, nil)
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := newGraph("a", "b", "c")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	// a imports b, b imports c
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddEdge_Weight(t *testing.T) {
	g := newGraph("a", "b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 distinct edge, got %d", g.EdgeCount())
	}
	if w := g.Weight("a", "b"); w != 2 {
		t.Errorf("expected weight 2, got %d", w)
	}
	if w := g.Weight("b", "a"); w != 0 {
		t.Errorf("expected weight 0 for missing edge, got %d", w)
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := newGraph("a")

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent target node")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent source node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := newGraph("a")

	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_GetParentsAndChildren(t *testing.T) {
	g := newGraph("a", "b", "c")

	// c imports a and b, b imports a
	_ = g.AddEdge("c", "b")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("b", "a")

	if got := g.GetParents("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("expected sorted parents [b c], got %v", got)
	}
	if got := g.GetChildren("c"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected sorted children [a b], got %v", got)
	}
	if g.InDegree("a") != 2 || g.OutDegree("c") != 2 {
		t.Errorf("unexpected degrees: in(a)=%d out(c)=%d", g.InDegree("a"), g.OutDegree("c"))
	}
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := newGraph("a", "b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	g.RemoveEdge("a", "b")

	if g.EdgeCount() != 0 {
		t.Errorf("expected no edges, got %d", g.EdgeCount())
	}
	if len(g.GetParents("b")) != 0 || len(g.GetChildren("a")) != 0 {
		t.Error("expected adjacency to be cleared")
	}
	// removing again is a no-op
	g.RemoveEdge("a", "b")
}

func TestGraph_Edges_Sorted(t *testing.T) {
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("a", "b")

	want := []Edge{
		{From: "a", To: "b", Weight: 1},
		{From: "a", To: "c", Weight: 1},
		{From: "c", To: "a", Weight: 1},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_StronglyConnectedComponents(t *testing.T) {
	g := newGraph("a", "b", "c", "d", "e", "f")
	// two cycles: {a,b,c} and {e,f}; d bridges them
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("d", "a")
	_ = g.AddEdge("d", "e")
	_ = g.AddEdge("e", "f")
	_ = g.AddEdge("f", "e")

	want := [][]string{{"a", "b", "c"}, {"d"}, {"e", "f"}}
	if got := g.StronglyConnectedComponents(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	wantCycles := [][]string{{"a", "b", "c"}, {"e", "f"}}
	if got := g.Cycles(); !reflect.DeepEqual(got, wantCycles) {
		t.Errorf("expected cycles %v, got %v", wantCycles, got)
	}
}

func TestGraph_StronglyConnectedComponents_InsertionOrder(t *testing.T) {
	build := func(order []string) [][]string {
		g := NewGraph()
		for _, id := range order {
			g.AddNode(id, nil)
		}
		_ = g.AddEdge("x", "y")
		_ = g.AddEdge("y", "z")
		_ = g.AddEdge("z", "x")
		_ = g.AddEdge("w", "x")
		return g.StronglyConnectedComponents()
	}

	first := build([]string{"w", "x", "y", "z"})
	second := build([]string{"z", "y", "x", "w"})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical components, got %v and %v", first, second)
	}
}

func TestGraph_Depths_Diamond(t *testing.T) {
	// a imports b and c, both import d
	g := newGraph("a", "b", "c", "d")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")

	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	if got := g.Depths(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_Depths_LongestPath(t *testing.T) {
	// a -> b -> c and a -> c: c sits at the longest distance
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("a", "c")

	if d := g.Depths()["c"]; d != 2 {
		t.Errorf("expected depth 2 for c, got %d", d)
	}
}

func TestGraph_Depths_CycleSharesDepth(t *testing.T) {
	g := newGraph("a", "b", "c", "d")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("d", "a")

	depths := g.Depths()
	if depths["d"] != 0 {
		t.Errorf("expected d at depth 0, got %d", depths["d"])
	}
	for _, id := range []string{"a", "b", "c"} {
		if depths[id] != 1 {
			t.Errorf("expected %s at depth 1, got %d", id, depths[id])
		}
	}
}

func TestGraph_BreakCycles(t *testing.T) {
	g := newGraph("a", "b", "c", "d")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("d", "a")

	score := map[string]int{"a": 3, "b": 2, "c": 2, "d": 1}
	reduced := g.Clone()
	removed := reduced.BreakCycles(func(id string) int { return score[id] })

	// b and c tie on score; b wins on path order
	want := []Edge{{From: "a", To: "b", Weight: 1}}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("expected %v, got %v", want, removed)
	}
	if cycles := reduced.Cycles(); len(cycles) != 0 {
		t.Errorf("expected reduced graph to be acyclic, found %v", cycles)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("expected original graph untouched, got %d edges", g.EdgeCount())
	}
}

func TestGraph_BreakCycles_Nested(t *testing.T) {
	// two overlapping cycles inside one component need two cuts
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "b")

	removed := g.BreakCycles(func(string) int { return 0 })
	if len(removed) != 2 {
		t.Errorf("expected 2 removed edges, got %v", removed)
	}
	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("expected acyclic graph, found %v", cycles)
	}
}

func TestGraph_GetAffectedNodes(t *testing.T) {
	// b and c import a, d imports c
	g := newGraph("a", "b", "c", "d", "e")
	_ = g.AddEdge("b", "a")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("d", "c")

	want := []string{"a", "b", "c", "d"}
	if got := g.GetAffectedNodes([]string{"a", "missing"}); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_GetUpstreamNodes(t *testing.T) {
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "a")

	want := []string{"b", "c"}
	if got := g.GetUpstreamNodes("a"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

