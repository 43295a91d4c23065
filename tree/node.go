// Package tree implements the shared MCTS tree: nodes keyed by a stable
// NodeID, each guarding its own outgoing edges with a per-node mutex, and
// an Allocator that owns the node table and the root.
package tree

import (
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
)

// NodeID is a stable, opaque handle to a tree node. Ids are monotonically
// increasing and never reused within a run.
type NodeID int64

// InvalidNodeID is the sentinel returned where no node exists.
const InvalidNodeID NodeID = -1

// ActionProb pairs an action with the evaluator's prior probability for
// taking it, as returned by Actor.Evaluate.
type ActionProb[A comparable] struct {
	Action A
	Prior  float32
}

// EdgeInfo is one outgoing action edge of a Node.
type EdgeInfo[A comparable] struct {
	Prior     float32
	Next      NodeID
	AccReward float64
	N         uint32
}

// Node is one tree node. It may be read without holding mu, but mu must be
// held to mutate sa or to perform the one-shot expansion. Once Visited is
// true, sa's key set is immutable; only edge statistics mutate afterwards.
type Node[A comparable] struct {
	mu      sync.Mutex
	visited atomic.Bool
	count   atomic.Uint32
	value   float32
	sa      map[A]EdgeInfo[A]
	order   []A // insertion order, used for tie-breaking
}

func newNode[A comparable]() *Node[A] {
	return &Node[A]{sa: make(map[A]EdgeInfo[A])}
}

// Visited reports whether this node has completed its one-shot expansion.
func (n *Node[A]) Visited() bool { return n.visited.Load() }

// Value returns the stored evaluation V for this node.
func (n *Node[A]) Value() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// Count returns the node's atomic visit counter.
func (n *Node[A]) Count() uint32 { return n.count.Load() }

// Edges returns a snapshot of the node's outgoing edges in insertion
// order. The returned slice is safe to range over without holding mu.
func (n *Node[A]) Edges() []A {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]A, len(n.order))
	copy(out, n.order)
	return out
}

// Edge returns the EdgeInfo for a, and whether it exists.
func (n *Node[A]) Edge(a A) (EdgeInfo[A], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.sa[a]
	return e, ok
}

// Descent returns the child NodeID reachable by action a, or InvalidNodeID.
func (n *Node[A]) Descent(a A) NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := n.sa[a]; ok {
		return e.Next
	}
	return InvalidNodeID
}

// ExpandIfNecessary performs the one-shot expansion: the first caller to
// observe !Visited under the node mutex calls expand, inserts one EdgeInfo
// per returned ActionProb (allocating a fresh child NodeID for each via
// alloc), stores V, and flips Visited. Every other concurrent caller
// observes Visited already true and is a no-op. It returns true iff this
// call performed the expansion.
func (n *Node[A]) ExpandIfNecessary(alloc *Allocator[A], expand func() ([]ActionProb[A], float32)) bool {
	if n.visited.Load() {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.visited.Load() {
		return false
	}

	pi, v := expand()
	for _, ap := range pi {
		if _, exists := n.sa[ap.Action]; exists {
			continue
		}
		n.sa[ap.Action] = EdgeInfo[A]{Prior: ap.Prior, Next: alloc.Alloc(), N: 0}
		n.order = append(n.order, ap.Action)
	}
	n.value = v
	n.visited.Store(true)
	return true
}

// AccumulateStats records one backprop for edge a: it increments N and
// adds reward to AccReward, and bumps the node's atomic visit count. It
// returns false if a is not a known edge (e.g. the edge set changed
// between selection and backprop, which should not happen but is checked
// defensively).
func (n *Node[A]) AccumulateStats(a A, reward float64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.sa[a]
	if !ok {
		return false
	}
	e.N++
	e.AccReward += reward
	n.sa[a] = e
	n.count.Add(1)
	return true
}

// MixPrior blends noise into each existing edge's Prior under the node
// mutex: Prior = (1-frac)*Prior + frac*noise[a]. Actions missing from
// noise are left untouched. This is the AlphaZero-style root exploration
// hook: callers normally invoke it exactly once per Run, on an
// already-expanded root.
func (n *Node[A]) MixPrior(noise map[A]float32, frac float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for a, e := range n.sa {
		if nv, ok := noise[a]; ok {
			e.Prior = (1-frac)*e.Prior + frac*nv
			n.sa[a] = e
		}
	}
}

// PUCTConstant is the fixed exploration constant. It is intentionally
// not configurable: engines that search the same tree format must select
// with the same weight for their statistics to be comparable.
const PUCTConstant float32 = 5.0

// Select chooses the edge maximizing Q(a) + c*P(a), per the PUCT rule:
//
//	Q(a) = (AccReward(a) + 0.5) / (N(a) + 1)
//	P(a) = (usePrior ? Prior(a) : 1) * sqrt(count) / (1 + N(a))
//
// Ties are broken by insertion order. Select panics if the node has no
// edges; callers must only invoke it on a Visited node with children.
func (n *Node[A]) Select(usePrior bool) A {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := n.count.Load()
	numerator := math32.Sqrt(float32(count))

	var best A
	haveBest := false
	bestScore := math32.Inf(-1)

	for _, a := range n.order {
		e := n.sa[a]
		q := (float32(e.AccReward) + 0.5) / (float32(e.N) + 1)
		prior := float32(1)
		if usePrior {
			prior = e.Prior
		}
		p := prior * numerator / (1 + float32(e.N))
		score := q + PUCTConstant*p
		if !haveBest || score > bestScore {
			bestScore = score
			best = a
			haveBest = true
		}
	}
	if !haveBest {
		panic("tree: Select called on a node with no edges")
	}
	return best
}
