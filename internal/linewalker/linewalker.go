// Package linewalker is the minimal state/actor fixture used to drive
// the engine end to end without a committed game-rules engine: an
// integer position on a line, two actions that nudge it, and a reward
// for reaching the far end.
package linewalker

import (
	"github.com/latticeforge/paragon/mcts"
	"github.com/latticeforge/paragon/tree"
)

// Goal is the position that earns reward.
const Goal = 10

// Actor implements mcts.Actor[int]: Pos walks in [0, Goal], clamped at
// both ends, actions are -1 and +1, and reward is 1.0 iff Pos == Goal.
type Actor struct {
	Pos      int
	thread   int
	terminal bool // Forward always reports terminal when set
}

// New returns an Actor starting at pos.
func New(pos int) *Actor {
	return &Actor{Pos: pos}
}

// NewTerminal returns an Actor whose Forward always reports terminal,
// for exercising terminal-at-root handling.
func NewTerminal(pos int) *Actor {
	return &Actor{Pos: pos, terminal: true}
}

// Clone returns an independent copy positioned at the same state.
func (a *Actor) Clone() mcts.Actor[int] {
	return &Actor{Pos: a.Pos, thread: a.thread, terminal: a.terminal}
}

// SetThread tags this copy with its worker index. Unused by the line
// walker itself; kept to satisfy mcts.Actor.
func (a *Actor) SetThread(i int) { a.thread = i }

// Forward nudges Pos by delta, clamped to [0, Goal]. It reports false
// (terminal) whenever the Actor was constructed via NewTerminal.
func (a *Actor) Forward(delta int) bool {
	if a.terminal {
		return false
	}
	next := a.Pos + delta
	if next < 0 {
		next = 0
	}
	if next > Goal {
		next = Goal
	}
	a.Pos = next
	return true
}

// Reward returns 1.0 iff Pos has reached Goal.
func (a *Actor) Reward() float32 {
	if a.Pos == Goal {
		return 1.0
	}
	return 0.0
}

// Evaluate returns a uniform prior over {+1, -1} and a fixed value of
// 0.5. +1 is inserted first so that selection ties resolve toward the
// goal, which keeps single-threaded searches from stalling at 0.
func (a *Actor) Evaluate() ([]tree.ActionProb[int], float32) {
	return []tree.ActionProb[int]{
		{Action: 1, Prior: 0.5},
		{Action: -1, Prior: 0.5},
	}, 0.5
}
