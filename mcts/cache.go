package mcts

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"

	"github.com/latticeforge/paragon/tree"
)

type cachedEval[A comparable] struct {
	pi []tree.ActionProb[A]
	v  float32
}

// cachingActor memoizes Actor.Evaluate across rollouts that land on the
// same state, keyed on the blake3 content hash of the state's own
// encoding. It only activates for Actors whose concrete state type
// implements Encodable; otherwise it evaluates straight through,
// uncached, since there is no safe way to key the cache.
type cachingActor[A comparable] struct {
	cache *lru.Cache[[32]byte, cachedEval[A]]
}

func newCachingActor[A comparable](size int) *cachingActor[A] {
	c, err := lru.New[[32]byte, cachedEval[A]](size)
	if err != nil {
		// size <= 0 is the only failure mode of lru.New, already guarded
		// by Options.CacheSize > 0 at the call site.
		panic(err)
	}
	return &cachingActor[A]{cache: c}
}

// wrap returns an Actor whose Evaluate is memoized through c. Clone
// preserves the wrapping so every descendant in a rollout's trajectory
// shares the same cache.
func (c *cachingActor[A]) wrap(a Actor[A]) Actor[A] {
	return &memoActor[A]{Actor: a, c: c}
}

type memoActor[A comparable] struct {
	Actor[A]
	c *cachingActor[A]
}

func (m *memoActor[A]) Clone() Actor[A] {
	return &memoActor[A]{Actor: m.Actor.Clone(), c: m.c}
}

func (m *memoActor[A]) Evaluate() ([]tree.ActionProb[A], float32) {
	enc, ok := m.Actor.(Encodable)
	if !ok {
		return m.Actor.Evaluate()
	}
	key := blake3.Sum256(enc.Encode())
	if hit, ok := m.c.cache.Get(key); ok {
		return hit.pi, hit.v
	}
	pi, v := m.Actor.Evaluate()
	m.c.cache.Add(key, cachedEval[A]{pi: pi, v: v})
	return pi, v
}
