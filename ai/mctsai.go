package ai

import "github.com/latticeforge/paragon/mcts"

// ActorFactory builds the mcts.Actor[A] root snapshot the engine should
// search from, given the driver's domain state.
type ActorFactory[A comparable] func(State[A]) mcts.Actor[A]

// PlayerIDSettable is an optional capability an Actor's concrete state
// may implement so MCTSAdapter.SetID can stamp the root actor with a
// stable player id before Run. Because Actor.Clone copies the
// implementation's own fields, stamping the root once propagates the id
// into every per-thread clone the engine makes during rollouts.
type PlayerIDSettable interface {
	SetPlayerID(id int)
}

// MCTSAdapter wraps an *mcts.Engine as an AI: each Act snapshots the
// driver state into a root actor and delegates to Engine.Run.
type MCTSAdapter[A comparable] struct {
	engine  *mcts.Engine[A]
	toActor ActorFactory[A]

	persistentTree bool
	id             int

	comm Comm[A]
	link CommLink
}

// NewMCTSAdapter wraps engine behind the AI contract. toActor converts
// the driver's State into the root mcts.Actor snapshot for each Act call.
func NewMCTSAdapter[A comparable](engine *mcts.Engine[A], toActor ActorFactory[A], persistentTree bool) *MCTSAdapter[A] {
	return &MCTSAdapter[A]{engine: engine, toActor: toActor, persistentTree: persistentTree}
}

// SetCommLink wires an external-evaluator comm boundary, used by Act when
// comm is non-nil instead of querying the engine directly.
func (m *MCTSAdapter[A]) SetCommLink(comm Comm[A], link CommLink) error {
	m.comm = comm
	m.link = link
	if comm != nil {
		return comm.InitAIComm(link)
	}
	return nil
}

// SetID assigns the player id and stamps it onto the next root actor
// (see PlayerIDSettable).
func (m *MCTSAdapter[A]) SetID(id int) { m.id = id }

// Act runs one search and writes the chosen action into out. If
// persistentTree is on and the root actor implements
// mcts.MoveHistorian, recent opponent moves are replayed via
// Engine.TreeAdvance before Run; otherwise the tree is cleared first.
//
// When a comm link is wired (SetCommLink), Act defers to it instead of
// searching: it extracts a request payload from state, sends it
// synchronously over the link, and translates the reply back into out.
// This is the path an AI whose decisions come from a remote service
// (rather than this engine's own tree search) takes; the engine and its
// tree sit idle while comm is set.
func (m *MCTSAdapter[A]) Act(state State[A], out *A, done *bool) bool {
	if done != nil && *done {
		return false
	}

	if m.comm != nil {
		return m.actViaComm(state, out)
	}

	root := m.toActor(state)
	if settable, ok := root.(PlayerIDSettable); ok {
		settable.SetPlayerID(m.id)
	}

	advanced := false
	if m.persistentTree {
		if historian, ok := root.(mcts.MoveHistorian[A]); ok {
			moveNumber := 0
			for _, a := range historian.MovesSince(&moveNumber) {
				m.engine.TreeAdvance(a)
			}
			advanced = true
		}
	}
	if !advanced {
		m.engine.Reset()
	}

	result, err := m.engine.Run(root)
	if err != nil {
		return false
	}
	if !result.HasAction {
		var zero A
		*out = zero
		return true
	}

	*out = result.BestAction
	if m.persistentTree {
		m.engine.TreeAdvance(result.BestAction)
	}
	return true
}

// actViaComm is the extract/send/handle-response pipeline for a
// comm-backed MCTSAdapter.
func (m *MCTSAdapter[A]) actViaComm(state State[A], out *A) bool {
	payload := m.comm.Extract(state)
	reply, err := m.link.SendWaitReply(payload)
	if err != nil {
		return false
	}
	if err := m.comm.HandleResponse(reply, out); err != nil {
		return false
	}
	return true
}

// GameEnd clears the tree and restarts the comm link, if any.
func (m *MCTSAdapter[A]) GameEnd() bool {
	m.engine.Reset()
	if m.comm != nil {
		_ = m.comm.InitAIComm(m.link)
	}
	return true
}
