package dag

import (
	"errors"
	"slices"
	"testing"
)

func build(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, id := range nodes {
		if err := g.AddNode(Node{TemplateID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode(Node{TemplateID: "a@1.0.0"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{TemplateID: "a@1.0.0"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate AddNode error = %v, want ErrDuplicateNodeID", err)
	}
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty AddNode error = %v, want ErrInvalidNodeID", err)
	}
}

func TestAddEdge(t *testing.T) {
	g := build(t, []string{"a", "b"}, nil)

	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge("missing", "b"); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("error = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge("a", "missing"); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("error = %v, want ErrUnknownTargetNode", err)
	}

	// Duplicate edges collapse to one.
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("duplicate AddEdge: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestAdjacency(t *testing.T) {
	g := build(t,
		[]string{"app", "lib", "util"},
		[][2]string{{"app", "lib"}, {"app", "util"}, {"lib", "util"}},
	)

	if got := g.Requires("app"); !slices.Equal(got, []string{"lib", "util"}) {
		t.Errorf("Requires(app) = %v", got)
	}
	if got := g.RequiredBy("util"); !slices.Equal(got, []string{"app", "lib"}) {
		t.Errorf("RequiredBy(util) = %v", got)
	}

	roots := g.Roots()
	if len(roots) != 1 || roots[0].TemplateID != "app" {
		t.Errorf("Roots() = %v", roots)
	}
	leaves := g.Leaves()
	if len(leaves) != 1 || leaves[0].TemplateID != "util" {
		t.Errorf("Leaves() = %v", leaves)
	}
}

func TestFindCyclesNone(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
	)
	if cycles := g.FindCycles(); cycles != nil {
		t.Errorf("FindCycles() = %v, want nil", cycles)
	}
	if g.HasCycle() {
		t.Error("HasCycle() = true for acyclic graph")
	}
}

func TestFindCyclesSimple(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("FindCycles() = %v, want one cycle", cycles)
	}
	if !slices.Equal(cycles[0], []string{"a", "b", "c", "a"}) {
		t.Errorf("cycle = %v, want [a b c a]", cycles[0])
	}
}

func TestFindCyclesSelfLoop(t *testing.T) {
	g := build(t, []string{"a"}, [][2]string{{"a", "a"}})

	cycles := g.FindCycles()
	if len(cycles) != 1 || !slices.Equal(cycles[0], []string{"a", "a"}) {
		t.Errorf("FindCycles() = %v, want [[a a]]", cycles)
	}
}

func TestFindCyclesMultiple(t *testing.T) {
	// Two independent cycles plus an acyclic tail.
	g := build(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{
			{"a", "b"}, {"b", "a"},
			{"c", "d"}, {"d", "c"},
			{"a", "e"},
		},
	)

	cycles := g.FindCycles()
	if len(cycles) != 2 {
		t.Fatalf("FindCycles() found %d cycles, want 2: %v", len(cycles), cycles)
	}
}

func TestTopoSort(t *testing.T) {
	g := build(t,
		[]string{"app", "web", "db", "base"},
		[][2]string{
			{"app", "web"}, {"app", "db"},
			{"web", "base"}, {"db", "base"},
		},
	)

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort: %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	// Every dependency must appear before its dependent.
	for _, n := range g.Nodes() {
		for _, req := range g.Requires(n.TemplateID) {
			if pos[req] > pos[n.TemplateID] {
				t.Errorf("order %v places %s after %s", order, req, n.TemplateID)
			}
		}
	}

	// Independent siblings keep declaration order: web before db.
	if pos["web"] > pos["db"] {
		t.Errorf("order %v breaks declaration-order tie-break", order)
	}
}

func TestTopoSortDeterministic(t *testing.T) {
	mk := func() *Graph {
		return build(t,
			[]string{"r", "x", "y", "z"},
			[][2]string{{"r", "x"}, {"r", "y"}, {"r", "z"}},
		)
	}

	first, err := mk().TopoSort()
	if err != nil {
		t.Fatalf("TopoSort: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := mk().TopoSort()
		if err != nil {
			t.Fatalf("TopoSort: %v", err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("TopoSort not deterministic: %v vs %v", first, again)
		}
	}
}

func TestTopoSortCycle(t *testing.T) {
	g := build(t,
		[]string{"a", "b"},
		[][2]string{{"a", "b"}, {"b", "a"}},
	)
	if _, err := g.TopoSort(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("TopoSort error = %v, want ErrGraphHasCycle", err)
	}
}
