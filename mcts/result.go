package mcts

import "github.com/latticeforge/paragon/tree"

// EdgeSummary pairs a root action with its full edge statistics, for
// callers that want the complete visit distribution rather than just the
// winner.
type EdgeSummary[A comparable] struct {
	Action A
	Edge   tree.EdgeInfo[A]
}

// Result is what Engine.Run hands back once every worker has finished its
// batch of rollouts.
type Result[A comparable] struct {
	// BestAction is the chosen root action, per Options.PickMethod. It is
	// the zero value of A when HasAction is false.
	BestAction A
	HasAction  bool

	// Edge is the root's EdgeInfo for BestAction, useful for callers that
	// want the raw visit count / accumulated reward / prior.
	Edge tree.EdgeInfo[A]

	// Edges lists every root edge observed at selection time, insertion
	// ordered, for callers that want the full visit distribution (e.g. to
	// build a training target or to check backprop accounting).
	Edges []EdgeSummary[A]
}

func pickResult[A comparable](root *tree.Node[A], method PickMethod) Result[A] {
	actions := root.Edges()
	if len(actions) == 0 {
		return Result[A]{}
	}

	edges := make([]EdgeSummary[A], 0, len(actions))
	var best A
	var bestEdge tree.EdgeInfo[A]
	haveBest := false
	var bestScore float64

	for _, a := range actions {
		e, ok := root.Edge(a)
		if !ok {
			continue
		}
		edges = append(edges, EdgeSummary[A]{Action: a, Edge: e})

		var score float64
		switch method {
		case StrongestPrior:
			score = float64(e.Prior)
		default:
			score = float64(e.N)
		}
		if !haveBest || score > bestScore {
			bestScore = score
			best = a
			bestEdge = e
			haveBest = true
		}
	}

	return Result[A]{
		BestAction: best,
		HasAction:  haveBest,
		Edge:       bestEdge,
		Edges:      edges,
	}
}
