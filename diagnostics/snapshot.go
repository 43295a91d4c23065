package diagnostics

import (
	"fmt"
	"os"

	"github.com/awalterschulze/gographviz"
	"gopkg.in/yaml.v3"

	"github.com/latticeforge/paragon/tree"
)

// EdgeSnapshot is one outgoing edge in a TreeSnapshot. Action is rendered
// through fmt.Sprintf("%v", ...) so the snapshot format stays agnostic to
// the concrete action type A.
type EdgeSnapshot struct {
	Action    string  `yaml:"action"`
	Prior     float32 `yaml:"prior"`
	Next      int64   `yaml:"next"`
	AccReward float64 `yaml:"acc_reward"`
	N         uint32  `yaml:"n"`
}

// NodeSnapshot is the YAML-serializable structural snapshot of one
// tree.Node.
type NodeSnapshot struct {
	ID      int64          `yaml:"id"`
	Visited bool           `yaml:"visited"`
	Count   uint32         `yaml:"count"`
	Value   float32        `yaml:"value"`
	Edges   []EdgeSnapshot `yaml:"edges"`
}

// TreeSnapshot is the whole-allocator structural snapshot. It carries
// enough state to rebuild a detached Allocator via LoadSnapshot.
type TreeSnapshot struct {
	RootID int64          `yaml:"root_id"`
	Nodes  []NodeSnapshot `yaml:"nodes"`
}

// Snapshot walks alloc and renders a TreeSnapshot. Node order in the
// result is unspecified (it follows Allocator.IDs).
func Snapshot[A comparable](alloc *tree.Allocator[A]) TreeSnapshot {
	snap := TreeSnapshot{RootID: int64(alloc.Root())}
	for _, id := range alloc.IDs() {
		node := alloc.Node(id)
		if node == nil {
			continue
		}
		ns := NodeSnapshot{
			ID:      int64(id),
			Visited: node.Visited(),
			Count:   node.Count(),
			Value:   node.Value(),
		}
		for _, a := range node.Edges() {
			e, ok := node.Edge(a)
			if !ok {
				continue
			}
			ns.Edges = append(ns.Edges, EdgeSnapshot{
				Action:    fmt.Sprintf("%v", a),
				Prior:     e.Prior,
				Next:      int64(e.Next),
				AccReward: e.AccReward,
				N:         e.N,
			})
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	return snap
}

// LoadSnapshot rebuilds a detached Allocator[A] from a TreeSnapshot
// previously produced by Snapshot. decode inverts the
// fmt.Sprintf("%v", a) used to render each edge's action when the
// snapshot was taken.
func LoadSnapshot[A comparable](snap TreeSnapshot, decode func(string) (A, error)) (*tree.Allocator[A], error) {
	alloc := tree.NewAllocator[A]()

	for _, ns := range snap.Nodes {
		order := make([]A, 0, len(ns.Edges))
		edges := make(map[A]tree.EdgeInfo[A], len(ns.Edges))
		for _, es := range ns.Edges {
			action, err := decode(es.Action)
			if err != nil {
				return nil, fmt.Errorf("diagnostics: decode action %q: %w", es.Action, err)
			}
			order = append(order, action)
			edges[action] = tree.EdgeInfo[A]{
				Prior:     es.Prior,
				Next:      tree.NodeID(es.Next),
				AccReward: es.AccReward,
				N:         es.N,
			}
		}
		alloc.Restore(tree.NodeID(ns.ID), ns.Visited, ns.Value, order, edges)
	}
	alloc.SetRoot(tree.NodeID(snap.RootID))

	return alloc, nil
}

// DumpTree renders alloc as a Graphviz DOT document at filename+".dot"
// and a round-trippable YAML structural snapshot at filename. It matches
// Engine.SetDumpHook's signature.
func DumpTree[A comparable](alloc *tree.Allocator[A], filename string) error {
	snap := Snapshot(alloc)

	out, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("diagnostics: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filename, out, 0o644); err != nil {
		return fmt.Errorf("diagnostics: write snapshot: %w", err)
	}

	dot, err := renderDOT(snap)
	if err != nil {
		return fmt.Errorf("diagnostics: render dot: %w", err)
	}
	if err := os.WriteFile(filename+".dot", []byte(dot), 0o644); err != nil {
		return fmt.Errorf("diagnostics: write dot: %w", err)
	}
	return nil
}

func renderDOT(snap TreeSnapshot) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("tree"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	for _, n := range snap.Nodes {
		name := nodeName(n.ID)
		label := fmt.Sprintf("\"id=%d count=%d value=%.3f\"", n.ID, n.Count, n.Value)
		if err := g.AddNode("tree", name, map[string]string{"label": label}); err != nil {
			return "", err
		}
	}
	for _, n := range snap.Nodes {
		src := nodeName(n.ID)
		for _, e := range n.Edges {
			if e.Next < 0 {
				continue
			}
			dst := nodeName(e.Next)
			label := fmt.Sprintf("\"%s n=%d\"", e.Action, e.N)
			if err := g.AddEdge(src, dst, true, map[string]string{"label": label}); err != nil {
				continue // child node allocated but never expanded; not every edge resolves
			}
		}
	}
	return g.String(), nil
}

func nodeName(id int64) string {
	return fmt.Sprintf("n%d", id)
}
