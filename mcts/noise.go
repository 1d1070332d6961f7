package mcts

import (
	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// rootNoise draws one symmetric Dirichlet(alpha,...,alpha) sample of
// length actions, using the same gonum distmv + x/exp/rand pairing the
// teacher's mcts.New uses to seed dirichletSample.
func rootNoise(actions int, alpha float32, seed uint64) []float32 {
	params := make([]float64, actions)
	for i := range params {
		params[i] = float64(alpha)
	}
	dist := distmv.NewDirichlet(params, distrand.NewSource(seed))
	sample := dist.Rand(nil)
	out := make([]float32, actions)
	for i, v := range sample {
		out[i] = float32(v)
	}
	return out
}

// blendNoise returns (1-eps)*policy + eps*noise, the root-prior update of
// §4.4 step 4.
func blendNoise(policy, noise []float32, eps float32) []float32 {
	out := make([]float32, len(policy))
	for i := range out {
		out[i] = (1-eps)*policy[i] + eps*noise[i]
	}
	return out
}
