// Package mcts implements the root manager and iteration driver described
// in the design: it drives a game.Environment and game.Evaluator pair
// through PUCT search over a tree.Arena, injecting Dirichlet
// exploration noise at the root and promoting the committed child's
// subtree between moves.
package mcts

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nullmove/arborist/game"
	"github.com/nullmove/arborist/puct"
	"github.com/nullmove/arborist/tree"
)

// Output is what Search returns to the caller: the sampled action, the
// root's value estimate, and the full visit-derived weight distribution.
type Output struct {
	SampledAction int
	RootValue     float32
	ActionWeights []float32
}

// Engine ties a Config, an Environment and an Evaluator together over a
// single tree.Arena. It is not safe for concurrent use — per §5, a
// search instance is single-threaded; parallelism comes from running
// many Engines over independently batched data.
type Engine[S any] struct {
	cfg  Config
	env  game.Environment[S]
	eval game.Evaluator[S]
	a    *tree.Arena[S]
	sel  puct.Selector[S]

	seed uint64
}

// New constructs an Engine. It returns an error if cfg fails Validate.
func New[S any](cfg Config, env game.Environment[S], eval game.Evaluator[S]) (*Engine[S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "mcts.New")
	}
	return &Engine[S]{
		cfg:  cfg,
		env:  env,
		eval: eval,
		a:    tree.New[S](cfg.MaxNodes, cfg.Actions),
		sel:  puct.Selector[S]{C: cfg.PUCTCoeff},
	}, nil
}

// Reset seeds the engine's deterministic RNG stream and clears the
// arena to an empty tree. Two engines Reset with the same seed and
// driven through the same Search/Commit calls against a pure
// Environment/Evaluator pair produce bit-identical results (§8
// Determinism).
func (e *Engine[S]) Reset(seed int64) {
	e.seed = uint64(seed)
	e.a.Reset()
}

// nextSeed advances the engine's RNG stream deterministically (a
// splitmix64 step), so repeated Dirichlet draws within one process are
// reproducible from the engine's original seed without relying on
// wall-clock entropy the way the teacher's mcts.New does.
func (e *Engine[S]) nextSeed() uint64 {
	e.seed += 0x9E3779B97F4A7C15
	z := e.seed
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Arena exposes the underlying tree for inspection (tests, logging).
func (e *Engine[S]) Arena() *tree.Arena[S] { return e.a }

// updateRoot implements §4.4 step 1-4: evaluate the root embedding,
// carry over prior visit statistics if the root was already populated
// (true after a Commit/Promote), and blend Dirichlet noise into its
// prior.
func (e *Engine[S]) updateRoot(rootEmbedding S) error {
	logits, v0 := e.eval.Evaluate(rootEmbedding)
	legal := e.env.LegalActionMask(rootEmbedding)
	if len(legal) != e.cfg.Actions || len(logits) != e.cfg.Actions {
		return errors.Errorf("mcts: collaborator vector length mismatch: actions=%d legal=%d logits=%d",
			e.cfg.Actions, len(legal), len(logits))
	}

	policy, anyLegal := maskedSoftmax(logits, legal)
	if !anyLegal {
		return errors.New("mcts: root has no legal actions")
	}

	noise := rootNoise(e.cfg.Actions, e.cfg.DirichletAlpha, e.nextSeed())
	noisyPolicy := blendNoise(policy, noise, e.cfg.DirichletEps)

	root := e.a.At(tree.Root)
	n, w := root.N, root.W
	if n <= 0 {
		n, w = 1, v0
	}
	e.a.SetRoot(n, w, noisyPolicy, rootEmbedding)
	return nil
}

// iterate runs one full traverse -> expand/evaluate -> backpropagate
// cycle (§4.3). PUCT traversal reads arena data plus each visited node's
// legal-action mask, and env.Step is called at most once per iteration,
// at the point a new or reused non-terminal leaf is reached.
func (e *Engine[S]) iterate() error {
	path, parent, action, reuseTerminal := e.traverse()

	var value float32
	switch {
	case action < 0:
		// parent itself has no legal actions: treat it as terminal and
		// simply reinforce its own statistics (§7's "no legal actions"
		// rule applied mid-tree rather than at the root).
		node := e.a.At(parent)
		value = node.Mean()
		e.a.Update(parent, node.N+1, node.W+value, nil, true, node.Embedding)
		e.backpropagate(path[:len(path)-1], value)

	case reuseTerminal:
		// Terminal encountered during traversal before a new leaf: use
		// its stored value, no environment step (§4.3 edge case).
		child := e.a.Child(parent, action)
		node := e.a.At(child)
		value = node.Mean()
		e.a.Update(child, node.N+1, node.W+value, nil, true, node.Embedding)
		e.backpropagate(path, value)

	default:
		parentEmbedding := e.a.At(parent).Embedding
		newEmbedding, reward, terminated := e.env.Step(parentEmbedding, action)

		policyLogits, evalValue := e.eval.Evaluate(newEmbedding)
		legal := e.env.LegalActionMask(newEmbedding)
		if len(legal) != e.cfg.Actions || len(policyLogits) != e.cfg.Actions {
			return errors.Errorf("mcts: collaborator vector length mismatch: actions=%d legal=%d logits=%d",
				e.cfg.Actions, len(legal), len(policyLogits))
		}
		policy, anyLegal := maskedSoftmax(policyLogits, legal)
		if !anyLegal {
			terminated = true
		}

		if terminated {
			// Keep the same sign convention as the non-terminal branch below:
			// value is always the reward seen by whoever is "to move" at the
			// newly reached state, so backpropagate's per-ply flip (ply 0
			// adjacent to this leaf) applies uniformly regardless of how the
			// leaf was reached.
			value = rewardForPlayer(reward, e.env.CurrentPlayer(newEmbedding))
		} else {
			value = evalValue
		}

		if existing := e.a.Child(parent, action); existing != tree.Null {
			node := e.a.At(existing)
			e.a.Update(existing, node.N+1, node.W+value, policy, terminated, newEmbedding)
		} else {
			e.a.AddChild(parent, action, 1, value, policy, terminated, newEmbedding)
			// arena-full case: AddChild is a no-op (returns Null) and the
			// caller backpropagates through the existing path only,
			// bounding memory exactly as §4.3 requires.
		}
		e.backpropagate(path, value)
	}

	e.a.SetDepth(1)
	return nil
}

// traverse walks from the root following PUCT until it reaches either an
// unexpanded edge (a leaf to expand), an already-terminal child, or a
// node with no legal actions of its own. It returns the recorded path
// (every slot visited, root first), the (parent, action) pair at the
// stopping point (action is -1 when parent itself has no legal
// actions), and whether an existing terminal child was reused.
func (e *Engine[S]) traverse() (path []int32, parent int32, action int, reuseTerminal bool) {
	parent = tree.Root
	path = append(path, parent)
	depth := int32(1)

	for {
		legal := e.legalMaskAt(parent)
		action = e.sel.Select(e.a, parent, legal)
		if action < 0 {
			return path, parent, -1, false
		}

		child := e.a.Child(parent, action)
		if child == tree.Null {
			e.a.BumpMaxDepth()
			return path, parent, action, false
		}
		if e.a.At(child).Terminal {
			e.a.BumpMaxDepth()
			return path, parent, action, true
		}
		if e.cfg.MaxDepth > 0 && int(depth) >= e.cfg.MaxDepth {
			e.a.BumpMaxDepth()
			return path, parent, action, false
		}

		parent = child
		path = append(path, parent)
		depth++
		e.a.SetDepth(depth)
	}
}

// legalMaskAt queries the environment's legal-action mask for the state
// already stored at slot. This is a pure read of an embedding the arena
// already holds, not an environment Step — traversal still steps the
// environment at most once per iteration, at the leaf (§4.2's Selector
// takes an explicit legal mask as input, so selection does not rely on
// priors alone being zero on illegal actions).
func (e *Engine[S]) legalMaskAt(slot int32) []bool {
	return e.env.LegalActionMask(e.a.At(slot).Embedding)
}

// backpropagate walks path from the leaf end back to the root, adding
// rawValue*creditFn(ply) to each visited node's cumulative value and
// incrementing its visit count once (§4.3 step 3, §3's reward_indices).
func (e *Engine[S]) backpropagate(path []int32, rawValue float32) {
	credit := e.cfg.creditFn()
	for ply := 0; ply < len(path); ply++ {
		slot := path[len(path)-1-ply]
		sign := credit(ply)
		e.a.AddVisit(slot, rawValue*sign)
	}
}

func rewardForPlayer(reward []float32, player int) float32 {
	if player < 0 || player >= len(reward) {
		return 0
	}
	return reward[player]
}

// Search runs update_root followed by numIterations of the iteration
// driver, then samples a root action, per §4.4.
func (e *Engine[S]) Search(rootEmbedding S, numIterations int) (Output, error) {
	if err := e.updateRoot(rootEmbedding); err != nil {
		return Output{}, err
	}
	for i := 0; i < numIterations; i++ {
		if err := e.iterate(); err != nil {
			return Output{}, err
		}
	}
	action, weights := e.SampleRootAction()
	root := e.a.At(tree.Root)
	return Output{
		SampledAction: action,
		RootValue:     root.Mean(),
		ActionWeights: weights,
	}, nil
}

// Policy returns the current visit-derived distribution at the root,
// without sampling (§6 Engine API: policy(state)).
func (e *Engine[S]) Policy() []float32 {
	visits := e.a.ChildVisits(tree.Root)
	total := float32(0)
	for _, v := range visits {
		total += v
	}
	if total == 0 {
		out := make([]float32, len(visits))
		for i := range out {
			out[i] = 1 / float32(len(out))
		}
		return out
	}
	out := make([]float32, len(visits))
	for i, v := range visits {
		out[i] = v / total
	}
	return out
}

// SampleRootAction implements §4.4's sample_root_action: temperature 0
// returns the most-visited action deterministically; otherwise the
// visit distribution is power-law reweighted by 1/temperature and
// sampled categorically.
func (e *Engine[S]) SampleRootAction() (int, []float32) {
	weights := e.Policy()
	if e.cfg.Temperature == 0 {
		return argmax(weights), weights
	}

	reweighted := make([]float32, len(weights))
	var total float32
	for i, w := range weights {
		reweighted[i] = math32.Pow(w, 1/e.cfg.Temperature)
		total += reweighted[i]
	}
	if total == 0 {
		for i := range reweighted {
			reweighted[i] = 1 / float32(len(reweighted))
		}
		total = 1
	} else {
		for i := range reweighted {
			reweighted[i] /= total
		}
	}

	r := randFloat01(e.nextSeed())
	var cumulative float32
	for i, w := range reweighted {
		cumulative += w
		if r <= cumulative {
			return i, reweighted
		}
	}
	return len(reweighted) - 1, reweighted
}

func argmax(weights []float32) int {
	best := 0
	bestVal := float32(math.Inf(-1))
	for i, w := range weights {
		if w > bestVal {
			best = i
			bestVal = w
		}
	}
	return best
}

// randFloat01 derives a deterministic uniform float in [0,1) from a
// 64-bit seed, used for categorical action sampling without pulling in
// a second RNG dependency beyond what Dirichlet sampling already needs.
func randFloat01(seed uint64) float32 {
	const mantissaBits = 53
	return float32(float64(seed>>(64-mantissaBits)) / float64(uint64(1)<<mantissaBits))
}

// Commit promotes the subtree rooted at the committed action to become
// the new root (§4.5), or fully resets the arena if the game ended.
func (e *Engine[S]) Commit(action int, terminated bool) {
	if terminated {
		e.a.Reset()
		return
	}
	tree.Promote(e.a, action)
}
