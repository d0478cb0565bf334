package hmr

import (
	"testing"

	"github.com/modkit-dev/modkit/internal/graph"
)

func newNode(url string) *graph.ModuleNode {
	return &graph.ModuleNode{
		URL:             url,
		Type:            graph.ModuleTypeJS,
		AcceptedHmrDeps: make(map[*graph.ModuleNode]struct{}),
		Importers:       make(map[*graph.ModuleNode]struct{}),
		ImportedModules: make(map[*graph.ModuleNode]struct{}),
	}
}

// imports wires A imports B: a forward edge and the importer back edge.
func imports(importer, imported *graph.ModuleNode) {
	importer.ImportedModules[imported] = struct{}{}
	imported.Importers[importer] = struct{}{}
}

func accepts(importer, dep *graph.ModuleNode) {
	importer.AcceptedHmrDeps[dep] = struct{}{}
}

func TestPropagate_SelfAccepting(t *testing.T) {
	node := newNode("/src/app.js")
	node.IsSelfAccepting = true
	node.TransformResult = &graph.TransformResult{Code: "old"}

	// An importer chain above that would dead-end; self-acceptance must
	// stop the walk before it is ever visited.
	parent := newNode("/src/parent.js")
	imports(parent, node)

	var boundaries []Boundary
	dead := propagateUpdate(node, 42, &boundaries, []*graph.ModuleNode{node})

	if dead {
		t.Fatal("Expected no dead end for self-accepting module")
	}
	if len(boundaries) != 1 {
		t.Fatalf("Expected exactly 1 boundary, got %d", len(boundaries))
	}
	if boundaries[0].Module != node || boundaries[0].AcceptedVia != node {
		t.Error("Expected boundary (node, node)")
	}
	if node.LastHMRTimestamp != 42 {
		t.Errorf("Expected timestamp stamped, got %d", node.LastHMRTimestamp)
	}
	if node.TransformResult != nil {
		t.Error("Expected transform cache cleared")
	}
	if parent.LastHMRTimestamp != 0 {
		t.Error("Expected walk not to ascend past a self-accepting module")
	}
}

func TestPropagate_NoImporters(t *testing.T) {
	node := newNode("/src/entry.js")

	var boundaries []Boundary
	dead := propagateUpdate(node, 1, &boundaries, []*graph.ModuleNode{node})

	if !dead {
		t.Fatal("Expected dead end for module with no importers and no self-acceptance")
	}
}

func TestPropagate_AcceptedDepBoundary(t *testing.T) {
	a := newNode("/src/a.js")
	b := newNode("/src/b.js")
	imports(a, b)
	accepts(a, b)

	// A itself has a non-accepting importer with no importers; the walk
	// must not ascend past A.
	top := newNode("/src/top.js")
	imports(top, a)

	var boundaries []Boundary
	dead := propagateUpdate(b, 7, &boundaries, []*graph.ModuleNode{b})

	if dead {
		t.Fatal("Expected no dead end")
	}
	if len(boundaries) != 1 {
		t.Fatalf("Expected 1 boundary, got %d", len(boundaries))
	}
	if boundaries[0].Module != a || boundaries[0].AcceptedVia != b {
		t.Error("Expected boundary (a, b)")
	}
	if a.LastHMRTimestamp != 7 || b.LastHMRTimestamp != 7 {
		t.Error("Expected whole chain stamped")
	}
	if top.LastHMRTimestamp != 0 {
		t.Error("Expected walk not to ascend past the accepting importer")
	}
}

func TestPropagate_CycleTerminates(t *testing.T) {
	a := newNode("/src/a.js")
	b := newNode("/src/b.js")
	c := newNode("/src/c.js")
	imports(a, b)
	imports(b, c)
	imports(c, a)

	var boundaries []Boundary
	dead := propagateUpdate(a, 1, &boundaries, []*graph.ModuleNode{a})

	// A pure cycle has no absorber and no importer-less module: the walk
	// terminates with neither boundaries nor a dead end.
	if dead {
		t.Error("Expected cycle walk to complete without a dead end")
	}
	if len(boundaries) != 0 {
		t.Errorf("Expected no boundaries, got %d", len(boundaries))
	}
}

func TestPropagate_DeadEndShortCircuits(t *testing.T) {
	changed := newNode("/src/changed.js")

	accepting := newNode("/src/accepting.js")
	imports(accepting, changed)
	accepts(accepting, changed)

	deadEnd := newNode("/src/dead.js")
	imports(deadEnd, changed)

	var boundaries []Boundary
	dead := propagateUpdate(changed, 5, &boundaries, []*graph.ModuleNode{changed})

	if !dead {
		t.Fatal("Expected dead end to win regardless of sibling branch order")
	}
}

func TestPropagate_DistinctAcceptancePathsKept(t *testing.T) {
	d := newNode("/src/d.js")
	b := newNode("/src/b.js")
	c := newNode("/src/c.js")
	a := newNode("/src/a.js")
	imports(b, d)
	imports(c, d)
	imports(a, b)
	imports(a, c)
	accepts(a, b)
	accepts(a, c)

	var boundaries []Boundary
	dead := propagateUpdate(d, 9, &boundaries, []*graph.ModuleNode{d})

	if dead {
		t.Fatal("Expected no dead end")
	}
	if len(boundaries) != 2 {
		t.Fatalf("Expected 2 boundaries (same module, distinct edges), got %d", len(boundaries))
	}
	for _, boundary := range boundaries {
		if boundary.Module != a {
			t.Errorf("Expected boundary module a, got %s", boundary.Module.URL)
		}
	}
	if boundaries[0].AcceptedVia == boundaries[1].AcceptedVia {
		t.Error("Expected distinct acceptedVia edges to be preserved, not deduplicated")
	}

	// Idempotent restamping: a sits on both successful paths.
	for _, n := range []*graph.ModuleNode{d, b, c, a} {
		if n.LastHMRTimestamp != 9 {
			t.Errorf("Expected %s stamped with 9, got %d", n.URL, n.LastHMRTimestamp)
		}
		if n.TransformResult != nil {
			t.Errorf("Expected %s cache cleared", n.URL)
		}
	}
}

func TestPropagate_TransitiveBoundary(t *testing.T) {
	// top accepts mid; mid imports leaf; updating leaf climbs two levels.
	leaf := newNode("/src/leaf.js")
	mid := newNode("/src/mid.js")
	top := newNode("/src/top.js")
	imports(mid, leaf)
	imports(top, mid)
	accepts(top, mid)

	var boundaries []Boundary
	dead := propagateUpdate(leaf, 3, &boundaries, []*graph.ModuleNode{leaf})

	if dead {
		t.Fatal("Expected no dead end")
	}
	if len(boundaries) != 1 || boundaries[0].Module != top || boundaries[0].AcceptedVia != mid {
		t.Fatalf("Expected boundary (top, mid), got %+v", boundaries)
	}
	for _, n := range []*graph.ModuleNode{leaf, mid, top} {
		if n.LastHMRTimestamp != 3 {
			t.Errorf("Expected %s on the chain stamped", n.URL)
		}
	}
}
