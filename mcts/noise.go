package mcts

import (
	"time"

	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/latticeforge/paragon/tree"
)

// rootNoiseFraction is the weight given to Dirichlet noise when mixed
// into the root's priors.
const rootNoiseFraction = 0.25

// mixRootNoise draws Dirichlet(alpha, ..., alpha) noise over root's
// current edges and blends it into their priors.
func mixRootNoise[A comparable](root *tree.Node[A], alpha float64) {
	actions := root.Edges()
	if len(actions) == 0 {
		return
	}

	alphas := make([]float64, len(actions))
	for i := range alphas {
		alphas[i] = alpha
	}
	dirichletDist := distmv.NewDirichlet(alphas, distrand.NewSource(uint64(time.Now().UnixNano())))
	sample := dirichletDist.Rand(nil)

	noise := make(map[A]float32, len(actions))
	for i, a := range actions {
		noise[a] = float32(sample[i])
	}
	root.MixPrior(noise, rootNoiseFraction)
}
