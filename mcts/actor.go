package mcts

import "github.com/latticeforge/paragon/tree"

// Actor is the black-box evaluator the engine drives one rollout at a
// time. A and the action type carried by tree.Node must agree. The root
// Actor handed to Engine.Run is shared by every worker, which call only
// Clone on it, concurrently; each rollout then works on its own clone.
type Actor[A comparable] interface {
	// Clone returns an independent copy positioned at the same state.
	Clone() Actor[A]

	// SetThread tags this copy with the worker index driving it, for
	// evaluators that keep per-thread inference state (a batched NN
	// session, a per-thread RNG stream, and so on).
	SetThread(i int)

	// Forward applies a and reports whether the resulting state has any
	// legal continuation. false means the state just became terminal.
	Forward(a A) bool

	// Reward returns the reward signal for the current state, read once
	// per rollout after the trajectory has been walked to its leaf.
	Reward() float32

	// Evaluate computes the expansion policy and value for the current
	// state: a prior over legal actions and a scalar value estimate.
	Evaluate() ([]tree.ActionProb[A], float32)
}

// MoveHistorian is an optional capability an Actor may implement so a
// persistent-tree caller can ask which actions were played since a given
// move number, for TreeAdvance chaining. Checked with a type assertion;
// Actors that don't implement it simply can't participate in that path.
type MoveHistorian[A comparable] interface {
	MovesSince(moveNumber *int) []A
}

// Encodable is an optional capability an Actor's state may implement to
// participate in evaluation memoization (see cache.go). Actors that don't
// implement it are evaluated uncached even when Options.CacheSize > 0.
type Encodable interface {
	Encode() []byte
}
