// Package mcts implements the parallel search engine: a fixed pool of
// rollout workers, each woken through its own state-ready collector and
// reporting back through a shared tree-ready notification, driving a
// tree.Allocator through repeated selection, expansion, evaluation, and
// backpropagation.
package mcts

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/latticeforge/paragon/primitives"
	"github.com/latticeforge/paragon/tree"
)

type runInfo[A comparable] struct {
	actor      Actor[A]
	numRollout int
}

// Engine is a pool of rollout workers sharing one tree.Allocator. It is
// safe to call Run repeatedly from a single coordinator goroutine; Stop
// must be called exactly once to retire the pool.
type Engine[A comparable] struct {
	opts  Options
	alloc *tree.Allocator[A]
	cache *cachingActor[A]

	// stateReady is per worker: each worker waits on and resets its own
	// collector, so a fast worker consuming its notification can never
	// swallow a slow sibling's.
	stateReady []*primitives.SemaCollector
	treeReady  *primitives.Notif
	ack        *primitives.SemaCollector
	doneFlag   atomic.Bool

	startOnce sync.Once
	started   atomic.Bool
	group     *errgroup.Group
	cancel    context.CancelFunc

	runMu   sync.Mutex
	current runInfo[A]

	dumpHook func(*tree.Allocator[A], string) error

	logger       *log.Logger
	verboseStart time.Time
	verboseLast  time.Time
}

// SetLogger wires a logger for Options.Verbose progress output. When
// unset, Run logs through log.Default().
func (e *Engine[A]) SetLogger(l *log.Logger) { e.logger = l }

func (e *Engine[A]) loggerOrDefault() *log.Logger {
	if e.logger != nil {
		return e.logger
	}
	return log.Default()
}

// SetDumpHook wires a diagnostic tree-dump function in, invoked once at
// Stop when Options.SaveTreeFilename is non-empty. diagnostics.DumpTree
// has this exact signature; the engine package itself has no dependency
// on diagnostics to avoid an import cycle.
func (e *Engine[A]) SetDumpHook(f func(*tree.Allocator[A], string) error) {
	e.dumpHook = f
}

// NewEngine returns an Engine over a fresh tree with its worker pool
// already running; the workers idle on their state-ready collectors
// until the first Run.
func NewEngine[A comparable](opts Options) *Engine[A] {
	e := &Engine[A]{
		opts:      opts,
		alloc:     tree.NewAllocator[A](),
		treeReady: primitives.NewNotif(),
		ack:       primitives.NewSemaCollector(),
	}
	e.stateReady = make([]*primitives.SemaCollector, opts.NumThreads)
	for i := range e.stateReady {
		e.stateReady[i] = primitives.NewSemaCollector()
	}
	if opts.CacheSize > 0 {
		e.cache = newCachingActor[A](opts.CacheSize)
	}
	e.ensureStarted()
	return e
}

func (e *Engine[A]) ensureStarted() {
	e.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		e.cancel = cancel
		group, ctx := errgroup.WithContext(ctx)
		e.group = group
		e.started.Store(true)
		for i := 0; i < e.opts.NumThreads; i++ {
			id := i
			group.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = newError(Fatal, "worker %d panicked: %v", id, r)
					}
				}()
				e.worker(ctx, id)
				return nil
			})
		}
	})
}

// worker is the per-thread state machine: Idle, waiting on stateReady;
// Running, executing the configured batch of rollouts; then Notified,
// acknowledging completion via treeReady before returning to Idle. A
// doneFlag observed after waking transitions it to Exiting instead.
func (e *Engine[A]) worker(ctx context.Context, id int) {
	for {
		e.stateReady[id].Wait(1, 0)
		e.stateReady[id].Reset()
		if e.doneFlag.Load() {
			e.ack.Notify()
			return
		}
		select {
		case <-ctx.Done():
			e.ack.Notify()
			return
		default:
		}

		info := e.runInfoSnapshot()
		if info.actor != nil {
			for i := 0; i < info.numRollout; i++ {
				e.rollout(id, info.actor)
			}
		}
		e.treeReady.Notify()
	}
}

func (e *Engine[A]) runInfoSnapshot() runInfo[A] {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.current
}

// Run drives one search from rootActor: every worker executes
// Options.NumRolloutPerThread rollouts against the engine's current tree,
// then Run picks a root action per Options.PickMethod. If rootActor is
// nil, Run is a no-op returning a zero Result.
//
// When Options.PersistentTree is on, the caller is responsible for
// calling TreeAdvance (or not) between Runs; Run itself never prunes.
func (e *Engine[A]) Run(rootActor Actor[A]) (Result[A], error) {
	if rootActor == nil {
		return Result[A]{}, nil
	}
	if e.doneFlag.Load() {
		return Result[A]{}, newError(InvalidState, "Run called after Stop")
	}

	actor := rootActor
	if e.cache != nil {
		actor = e.cache.wrap(rootActor)
	}

	root := e.alloc.Node(e.alloc.Root())
	if root == nil {
		return Result[A]{}, newError(InvalidState, "allocator has no root node")
	}
	if e.opts.RootNoise {
		// Expand the root synchronously (a no-op if persistence already
		// did it) so noise has a prior distribution to mix into before
		// any worker selects from it.
		root.ExpandIfNecessary(e.alloc, actor.Evaluate)
		mixRootNoise(root, e.opts.DirichletAlpha)
	}

	e.runMu.Lock()
	e.current = runInfo[A]{actor: actor, numRollout: e.opts.NumRolloutPerThread}
	e.runMu.Unlock()

	if e.opts.Verbose {
		e.verboseStart = time.Now()
		e.verboseLast = time.Time{}
		e.loggerOrDefault().Printf("mcts: run started, %d threads x %d rollouts", e.opts.NumThreads, e.opts.NumRolloutPerThread)
	}

	e.treeReady.Reset()
	for _, ready := range e.stateReady {
		ready.Notify()
	}
	e.treeReady.Wait(e.opts.NumThreads, e.verboseTick)
	e.treeReady.Reset()

	result := pickResult(root, e.opts.PickMethod)
	if e.opts.Verbose {
		e.loggerOrDefault().Printf("mcts: run finished in %s, best_a=%v n=%d", time.Since(e.verboseStart), result.BestAction, result.Edge.N)
	}
	return result, nil
}

// verboseTick is the periodic callback primitives.Notif.Wait invokes while
// the coordinator blocks on tree_ready: it logs once every
// Options.VerboseTime (or on every callback slice if VerboseTime is zero)
// how many of the NumThreads workers have reported back so far.
func (e *Engine[A]) verboseTick() {
	if !e.opts.Verbose {
		return
	}
	now := time.Now()
	if e.opts.VerboseTime > 0 && !e.verboseLast.IsZero() && now.Sub(e.verboseLast) < e.opts.VerboseTime {
		return
	}
	e.verboseLast = now
	e.loggerOrDefault().Printf("mcts: waiting on workers, %d/%d reported, %s elapsed",
		e.treeReady.Count(), e.opts.NumThreads, now.Sub(e.verboseStart))
}

// TreeAdvance prunes the tree to the subtree reachable by action, for
// Options.PersistentTree callers that want to reuse search effort across
// moves.
func (e *Engine[A]) TreeAdvance(action A) {
	e.alloc.TreeAdvance(action)
}

// Reset discards the entire tree, starting the next Run from a fresh
// root.
func (e *Engine[A]) Reset() {
	e.alloc.Clear()
}

// Stop signals every worker to exit, waits for all of them to
// acknowledge, and returns the first worker error (if any), combined
// with any error from the tree-dump hook. Calling Stop more than once,
// or before the pool has started, is a no-op.
func (e *Engine[A]) Stop() error {
	if !e.started.Load() {
		return nil
	}
	if !e.doneFlag.CompareAndSwap(false, true) {
		return nil
	}

	e.ack.Reset()
	for _, ready := range e.stateReady {
		ready.Notify()
	}
	e.ack.Wait(e.opts.NumThreads, 0)

	e.cancel()
	err := e.group.Wait()

	if e.opts.SaveTreeFilename != "" && e.dumpHook != nil {
		if dumpErr := e.dumpHook(e.alloc, e.opts.SaveTreeFilename); dumpErr != nil {
			err = multierror.Append(err, dumpErr)
		}
	}
	return err
}

// Size reports the number of live tree nodes, for diagnostics and tests.
func (e *Engine[A]) Size() int { return e.alloc.Size() }
