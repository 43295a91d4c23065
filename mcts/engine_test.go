package mcts_test

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/paragon/internal/linewalker"
	"github.com/latticeforge/paragon/mcts"
	"github.com/latticeforge/paragon/tree"
)

func smallOptions() mcts.Options {
	o := mcts.DefaultOptions()
	o.NumThreads = 4
	o.NumRolloutPerThread = 50
	return o
}

// S1: ten iterations of Run/forward/TreeAdvance from s=0 must reach
// s=10, and the final best_a at s=9 must be +1.
func TestScenarioS1LineWalker(t *testing.T) {
	opts := mcts.DefaultOptions()
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	pos := 0
	var lastBest int
	for i := 0; i < 10; i++ {
		actor := linewalker.New(pos)
		result, err := engine.Run(actor)
		require.NoError(t, err)
		require.True(t, result.HasAction)

		lastBest = result.BestAction
		if lastBest > 0 {
			pos++
		} else if pos > 0 {
			pos--
		}
		engine.TreeAdvance(result.BestAction)
	}

	assert.Equal(t, linewalker.Goal, pos)
	assert.Equal(t, 1, lastBest, "best_a at s=9 must be +1")
}

// S2: a root that is terminal under Forward must return without error,
// pick the first-inserted edge, and accumulate no backprop statistics.
func TestScenarioS2TerminalRoot(t *testing.T) {
	opts := smallOptions()
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	actor := linewalker.NewTerminal(3)
	result, err := engine.Run(actor)
	require.NoError(t, err)
	require.True(t, result.HasAction)
	assert.Equal(t, 1, result.BestAction, "first-inserted edge is +1")
	assert.EqualValues(t, 0, result.Edge.N, "no backprop must occur against a terminal root")
}

// S3: after a Run, TreeAdvance(best_a) must prune the tree. Through the
// engine only Size is visible, so this checks that the allocator shrinks;
// the new root's identity and the freeing of siblings are checked in the
// tree package's allocator tests.
func TestScenarioS3PersistentPrune(t *testing.T) {
	opts := smallOptions()
	opts.PersistentTree = true
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	actor := linewalker.New(5)
	result, err := engine.Run(actor)
	require.NoError(t, err)
	require.True(t, result.HasAction)

	sizeBefore := engine.Size()
	engine.TreeAdvance(result.BestAction)
	sizeAfter := engine.Size()

	assert.Less(t, sizeAfter, sizeBefore, "pruning a sibling subtree must shrink the allocator")
}

// S4: Stop with no prior Run must terminate promptly and never hang
// waiting on workers that never ran.
func TestScenarioS4StopDuringIdle(t *testing.T) {
	opts := smallOptions()
	engine := mcts.NewEngine[int](opts)

	done := make(chan error, 1)
	go func() { done <- engine.Stop() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly with no prior Run")
	}
}

// Property 4: single-threaded, deterministic-actor Runs against
// identical states must produce identical results.
func TestDeterminismUnderSingleThread(t *testing.T) {
	opts := smallOptions()
	opts.NumThreads = 1
	opts.NumRolloutPerThread = 20

	e1 := mcts.NewEngine[int](opts)
	defer e1.Stop()
	e2 := mcts.NewEngine[int](opts)
	defer e2.Stop()

	r1, err := e1.Run(linewalker.New(4))
	require.NoError(t, err)
	r2, err := e2.Run(linewalker.New(4))
	require.NoError(t, err)

	assert.Equal(t, r1.BestAction, r2.BestAction)
	assert.Equal(t, r1.Edge.N, r2.Edge.N)
	assert.Equal(t, r1.Edge.AccReward, r2.Edge.AccReward)
}

// Property 3: backprop accounting. Under a single worker thread, exactly
// one rollout (the one that finds the root still unvisited, with no edge
// yet to select) contributes no root-level backprop; every rollout after
// it always selects and records exactly one root edge visit. So
// sum_a n(root, a) == num_rollout_per_thread - 1.
func TestBackpropAccounting(t *testing.T) {
	opts := smallOptions()
	opts.NumThreads = 1
	opts.NumRolloutPerThread = 30
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	result, err := engine.Run(linewalker.New(5))
	require.NoError(t, err)

	var total uint32
	for _, e := range result.Edges {
		total += e.Edge.N
	}

	assert.EqualValues(t, opts.NumRolloutPerThread-1, total)
}

// RootNoise mixes Dirichlet noise into the root's priors before search
// starts, so with it enabled the root is expanded up front: every
// worker's rollouts select an edge, and none are lost to a first,
// unvisited-root rollout.
func TestRootNoiseExpandsRootBeforeSearch(t *testing.T) {
	opts := smallOptions()
	opts.NumThreads = 1
	opts.NumRolloutPerThread = 20
	opts.RootNoise = true
	opts.DirichletAlpha = 0.3
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	result, err := engine.Run(linewalker.New(5))
	require.NoError(t, err)
	require.True(t, result.HasAction)

	var total uint32
	for _, e := range result.Edges {
		total += e.Edge.N
	}
	assert.EqualValues(t, opts.NumRolloutPerThread, total, "a pre-expanded root loses no rollout to first-visit expansion")
}

// Options.Verbose must produce observable log output through Run, not just
// compile and do nothing.
func TestVerboseLogsRunProgress(t *testing.T) {
	opts := smallOptions()
	opts.Verbose = true
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	var buf bytes.Buffer
	engine.SetLogger(log.New(&buf, "", 0))

	result, err := engine.Run(linewalker.New(5))
	require.NoError(t, err)
	require.True(t, result.HasAction)

	assert.Contains(t, buf.String(), "run started")
	assert.Contains(t, buf.String(), "run finished")
}

// biasedActor gives +1 a weaker prior than -1 but never any reward, so
// most_visited and strongest_prior can disagree.
type biasedActor struct{ thread int }

func (b *biasedActor) Clone() mcts.Actor[int] { return &biasedActor{thread: b.thread} }
func (b *biasedActor) SetThread(i int)        { b.thread = i }
func (b *biasedActor) Forward(a int) bool     { return true }
func (b *biasedActor) Reward() float32        { return 0 }
func (b *biasedActor) Evaluate() ([]tree.ActionProb[int], float32) {
	return []tree.ActionProb[int]{
		{Action: 1, Prior: 0.2},
		{Action: -1, Prior: 0.8},
	}, 0
}

func TestStrongestPriorPicksHighestPrior(t *testing.T) {
	opts := smallOptions()
	opts.NumThreads = 1
	opts.NumRolloutPerThread = 10
	opts.PickMethod = mcts.StrongestPrior
	engine := mcts.NewEngine[int](opts)
	defer engine.Stop()

	result, err := engine.Run(&biasedActor{})
	require.NoError(t, err)
	require.True(t, result.HasAction)
	assert.Equal(t, -1, result.BestAction, "strongest_prior must pick the 0.8 edge regardless of visits")
	assert.Equal(t, float32(0.8), result.Edge.Prior)
}

// Property 5: a persistent engine advanced along its own best actions
// must pick the same action sequence as a fresh engine rebuilt from each
// reached position.
func TestPersistentTreeEquivalence(t *testing.T) {
	opts := smallOptions()
	opts.NumThreads = 1
	opts.NumRolloutPerThread = 40

	persistent := mcts.NewEngine[int](opts)
	defer persistent.Stop()
	fresh := mcts.NewEngine[int](opts)
	defer fresh.Stop()

	posP, posF := 0, 0
	for i := 0; i < 5; i++ {
		rp, err := persistent.Run(linewalker.New(posP))
		require.NoError(t, err)
		require.True(t, rp.HasAction)

		fresh.Reset()
		rf, err := fresh.Run(linewalker.New(posF))
		require.NoError(t, err)
		require.True(t, rf.HasAction)

		assert.Equal(t, rf.BestAction, rp.BestAction, "step %d", i)

		persistent.TreeAdvance(rp.BestAction)
		posP = step(posP, rp.BestAction)
		posF = step(posF, rf.BestAction)
	}
}

func step(pos, a int) int {
	pos += a
	if pos < 0 {
		pos = 0
	}
	if pos > linewalker.Goal {
		pos = linewalker.Goal
	}
	return pos
}
