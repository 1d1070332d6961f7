// Package puct implements the PUCT (Predictor + UCB for Trees) child
// selection rule used by the iteration driver to descend the search tree.
package puct

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/nullmove/arborist/tree"
)

// Selector picks the PUCT-maximizing legal action at a given arena slot.
// It is the component named in §4.2: the engine holds one per Engine[S]
// instance, configured with the exploration coefficient from Config.
type Selector[S any] struct {
	// C is the exploration coefficient (c in Q + c*P*sqrt(1+ΣN)/(1+N)).
	C float32
}

// Select returns the legal action maximizing Q_a + U_a at parent, per
// §4.2. Ties are broken by lowest action index. legal must have length
// a.Actions(); illegal actions score −∞ and are never returned unless
// every action is illegal (in which case action -1 is returned — callers
// must treat that as the "no legal actions" terminal case of §7).
func (s Selector[S]) Select(a *tree.Arena[S], parent int32, legal []bool) int {
	node := a.At(parent)
	sumN := a.SumChildVisits(parent)
	explorationScale := math32.Sqrt(1 + sumN)

	best := -1
	var bestScore float32 = float32(math.Inf(-1))
	for action := 0; action < a.Actions(); action++ {
		if !legal[action] {
			continue
		}
		var nA, wA float32
		if child := a.Child(parent, action); child != tree.Null {
			childNode := a.At(child)
			nA, wA = childNode.N, childNode.W
		}
		denom := nA
		if denom < 1 {
			denom = 1
		}
		q := wA / denom
		u := s.C * node.P[action] * explorationScale / (1 + nA)
		score := q + u
		if best == -1 || score > bestScore {
			best = action
			bestScore = score
		}
	}
	return best
}
