package tree

import "sync"

// Allocator owns every node in a search tree and the identity of its root.
// It hands out fresh NodeIDs on Alloc, and provides the bulk-free
// operations RecursiveFree, TreeAdvance, and Clear used when pruning.
type Allocator[A comparable] struct {
	mu     sync.Mutex
	nodes  map[NodeID]*Node[A]
	nextID NodeID
	rootID NodeID
}

// NewAllocator returns an Allocator with a single, empty root node.
func NewAllocator[A comparable]() *Allocator[A] {
	a := &Allocator[A]{nodes: make(map[NodeID]*Node[A])}
	a.rootID = a.Alloc()
	return a
}

// Alloc installs a fresh, empty node and returns its id.
func (a *Allocator[A]) Alloc() NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.nodes[id] = newNode[A]()
	return id
}

// Node returns the node for id, or nil if it does not exist.
func (a *Allocator[A]) Node(id NodeID) *Node[A] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nodes[id]
}

// Root returns the current root id.
func (a *Allocator[A]) Root() NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rootID
}

// Size reports the number of live nodes.
func (a *Allocator[A]) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes)
}

// Free erases a single node.
func (a *Allocator[A]) Free(id NodeID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.nodes, id)
}

// RecursiveFree does a DFS over id's subtree, freeing every node
// (including id itself).
func (a *Allocator[A]) RecursiveFree(id NodeID) {
	if id == InvalidNodeID {
		return
	}
	node := a.Node(id)
	if node == nil {
		return
	}
	for _, act := range node.Edges() {
		if e, ok := node.Edge(act); ok && e.Next != InvalidNodeID {
			a.RecursiveFree(e.Next)
		}
	}
	a.Free(id)
}

// TreeAdvance makes the child reachable by a the new root, recursively
// freeing every sibling subtree and the old root. If a is not present
// among the root's edges (or the root isn't visited yet), a fresh empty
// root is allocated instead and the next search will expand it.
func (a *Allocator[A]) TreeAdvance(action A) {
	oldRoot := a.Root()
	root := a.Node(oldRoot)

	var child NodeID = InvalidNodeID
	if root != nil {
		if e, ok := root.Edge(action); ok {
			child = e.Next
		}
		for _, act := range root.Edges() {
			if act == action {
				continue
			}
			if e, ok := root.Edge(act); ok && e.Next != InvalidNodeID {
				a.RecursiveFree(e.Next)
			}
		}
	}
	a.Free(oldRoot)

	if child == InvalidNodeID {
		child = a.Alloc()
	}
	a.mu.Lock()
	a.rootID = child
	a.mu.Unlock()
}

// Clear drops every node and allocates a fresh, empty root.
func (a *Allocator[A]) Clear() {
	a.mu.Lock()
	a.nodes = make(map[NodeID]*Node[A])
	a.mu.Unlock()
	a.rootID = a.Alloc()
}

// IDs returns every currently live node id. Order is unspecified; it
// exists for diagnostics.Snapshot, which needs to enumerate the whole
// tree rather than walk it edge by edge.
func (a *Allocator[A]) IDs() []NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]NodeID, 0, len(a.nodes))
	for id := range a.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Restore installs a node at id with the given visited/value/edge state,
// advancing nextID past id if necessary. It exists for
// diagnostics.LoadSnapshot's round-trip reload and bypasses the normal
// Alloc/ExpandIfNecessary path; it is not part of the search hot path.
func (a *Allocator[A]) Restore(id NodeID, visited bool, value float32, order []A, edges map[A]EdgeInfo[A]) {
	n := newNode[A]()
	n.value = value
	n.order = append([]A(nil), order...)
	var totalN uint64
	for k, e := range edges {
		n.sa[k] = e
		totalN += uint64(e.N)
	}
	if visited {
		n.visited.Store(true)
	}
	n.count.Store(uint32(totalN))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodes[id] = n
	if id >= a.nextID {
		a.nextID = id + 1
	}
}

// SetRoot sets the allocator's root id directly, for
// diagnostics.LoadSnapshot's round-trip reload.
func (a *Allocator[A]) SetRoot(id NodeID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rootID = id
}
