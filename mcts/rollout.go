package mcts

import "github.com/latticeforge/paragon/tree"

type trajectoryStep[A comparable] struct {
	node   *tree.Node[A]
	action A
}

// rollout performs one full SELECT/EXPAND/EVALUATE/BACKPROP pass: clone
// the root actor, descend while nodes are already visited, expand the
// leaf exactly once if the trajectory didn't end at a terminal state,
// read the reward off the cloned actor, and apply it to every edge
// walked.
func (e *Engine[A]) rollout(workerID int, rootActor Actor[A]) {
	state := rootActor.Clone()
	state.SetThread(workerID)

	var trajectory []trajectoryStep[A]
	node := e.alloc.Node(e.alloc.Root())
	if node == nil {
		return
	}

	terminal := false
	depth := 0
	for node.Visited() && len(node.Edges()) > 0 {
		if e.opts.MaxNumMoves > 0 && depth >= e.opts.MaxNumMoves {
			break
		}
		action := node.Select(e.opts.UsePrior)
		if !state.Forward(action) {
			terminal = true
			break
		}
		trajectory = append(trajectory, trajectoryStep[A]{node: node, action: action})

		nextID := node.Descent(action)
		if nextID == tree.InvalidNodeID {
			break
		}
		next := e.alloc.Node(nextID)
		if next == nil {
			break
		}
		node = next
		depth++
	}

	if !terminal {
		node.ExpandIfNecessary(e.alloc, func() ([]tree.ActionProb[A], float32) {
			return state.Evaluate()
		})
	}

	reward := float64(state.Reward())
	for _, step := range trajectory {
		step.node.AccumulateStats(step.action, reward)
	}
}
