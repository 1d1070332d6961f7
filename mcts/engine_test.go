package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullmove/arborist/tree"
)

// twoChoiceState is the embedding for a trivial two-action environment
// that terminates immediately on any action (spec §8 scenario 1).
type twoChoiceState struct {
	ply int
}

type terminalOnFirstMoveEnv struct{}

func (terminalOnFirstMoveEnv) InitialState(seed int64) twoChoiceState { return twoChoiceState{} }

func (terminalOnFirstMoveEnv) Step(s twoChoiceState, action int) (twoChoiceState, []float32, bool) {
	return twoChoiceState{ply: s.ply + 1}, []float32{1, -1}, true
}

func (terminalOnFirstMoveEnv) LegalActionMask(s twoChoiceState) []bool {
	return []bool{true, true}
}

func (terminalOnFirstMoveEnv) NumPlayers() int   { return 2 }
func (terminalOnFirstMoveEnv) ActionShape() int  { return 2 }
func (terminalOnFirstMoveEnv) CurrentPlayer(s twoChoiceState) int {
	return s.ply % 2
}

type zeroEvaluator struct{ actions int }

func (z zeroEvaluator) Evaluate(s twoChoiceState) ([]float32, float32) {
	return make([]float32, z.actions), 0
}

func newTrivialEngine(t *testing.T, maxNodes int) *Engine[twoChoiceState] {
	t.Helper()
	cfg := DefaultConfig(2)
	cfg.MaxNodes = maxNodes
	cfg.DirichletEps = 0 // isolate PUCT from noise for deterministic assertions
	cfg.NumIterations = 1
	e, err := New[twoChoiceState](cfg, terminalOnFirstMoveEnv{}, zeroEvaluator{actions: 2})
	require.NoError(t, err)
	e.Reset(1)
	return e
}

func TestTrivialTerminalScenario(t *testing.T) {
	e := newTrivialEngine(t, 8)
	out, err := e.Search(twoChoiceState{}, 1)
	require.NoError(t, err)

	root := e.Arena().At(tree.Root)
	assert.Equal(t, float32(2), root.N)
	assert.Equal(t, float32(1), root.W)
	assert.InDelta(t, 1, out.ActionWeights[0]+out.ActionWeights[1], 1e-6)
}

func TestArenaExhaustionScenario(t *testing.T) {
	// max_nodes=4 leaves room for root + 2 extra slots (capacity-2 usable
	// beyond root); the engine must run to completion without panicking
	// and next_empty must saturate at capacity.
	e := newTrivialEngine(t, 4)
	out, err := e.Search(twoChoiceState{}, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 4, e.Arena().NextEmpty())
	assert.True(t, e.Arena().Full())
	assert.NotEmpty(t, out.ActionWeights)
}

// threeActionTerminalEnv has more legal actions than a tiny arena has
// room for, so expansion attempts genuinely exercise the §4.3 overflow
// no-op (AddChild returning tree.Null) rather than just filling exactly.
type threeActionTerminalEnv struct{}

func (threeActionTerminalEnv) InitialState(seed int64) twoChoiceState { return twoChoiceState{} }
func (threeActionTerminalEnv) Step(s twoChoiceState, action int) (twoChoiceState, []float32, bool) {
	return twoChoiceState{ply: s.ply + 1}, []float32{1, -1}, true
}
func (threeActionTerminalEnv) LegalActionMask(twoChoiceState) []bool { return []bool{true, true, true} }
func (threeActionTerminalEnv) NumPlayers() int                       { return 2 }
func (threeActionTerminalEnv) ActionShape() int                      { return 3 }
func (threeActionTerminalEnv) CurrentPlayer(s twoChoiceState) int     { return s.ply % 2 }

// fourActionEnv is terminalOnFirstMoveEnv widened to four legal actions,
// so its mask length matches a Config with Actions=4.
type fourActionEnv struct{ terminalOnFirstMoveEnv }

func (fourActionEnv) LegalActionMask(twoChoiceState) []bool { return []bool{true, true, true, true} }
func (fourActionEnv) ActionShape() int                      { return 4 }

func TestArenaExhaustionOverflowIsNoop(t *testing.T) {
	cfg := DefaultConfig(3)
	cfg.MaxNodes = 3 // room for root + exactly one child
	cfg.DirichletEps = 0
	e, err := New[twoChoiceState](cfg, threeActionTerminalEnv{}, zeroEvaluator{actions: 3})
	require.NoError(t, err)
	e.Reset(3)

	out, err := e.Search(twoChoiceState{}, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 3, e.Arena().NextEmpty())
	assert.True(t, e.Arena().Full())

	root := e.Arena().At(tree.Root)
	assert.Equal(t, float32(51), root.N) // 1 (seed) + 50 backprop increments
	assert.NotEmpty(t, out.ActionWeights)
}

func TestPriorNormalizationAfterExpansion(t *testing.T) {
	e := newTrivialEngine(t, 8)
	_, err := e.Search(twoChoiceState{}, 4)
	require.NoError(t, err)

	root := e.Arena().At(tree.Root)
	var sum float32
	for _, p := range root.P {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-5)
}

func TestTemperatureZeroIsArgmax(t *testing.T) {
	e := newTrivialEngine(t, 8)
	e.cfg.Temperature = 0
	_, err := e.Search(twoChoiceState{}, 16)
	require.NoError(t, err)

	action, weights := e.SampleRootAction()
	best := 0
	for i, w := range weights {
		if w > weights[best] {
			best = i
		}
	}
	assert.Equal(t, best, action)
}

func TestCommitPromotesRetainedSubtree(t *testing.T) {
	e := newTrivialEngine(t, 16)
	_, err := e.Search(twoChoiceState{}, 8)
	require.NoError(t, err)

	preChild := e.Arena().At(e.Arena().Child(tree.Root, 0))
	e.Commit(0, false)

	root := e.Arena().At(tree.Root)
	assert.Equal(t, preChild.N, root.N)
	assert.Equal(t, preChild.W, root.W)
}

func TestCommitTerminatedResetsArena(t *testing.T) {
	e := newTrivialEngine(t, 16)
	_, err := e.Search(twoChoiceState{}, 8)
	require.NoError(t, err)

	e.Commit(0, true)
	assert.EqualValues(t, tree.Root+1, e.Arena().NextEmpty())
}

func TestConfigValidateCollectsAllViolations(t *testing.T) {
	cfg := Config{
		MaxNodes:       1,
		Actions:        0,
		DirichletEps:   2,
		DirichletAlpha: -1,
		PUCTCoeff:      -1,
		NumIterations:  0,
		Temperature:    -1,
		NumPlayers:     0,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_nodes")
	assert.Contains(t, err.Error(), "actions")
	assert.Contains(t, err.Error(), "dirichlet_epsilon")
}

func TestRootNoiseCalibrationFullNoise(t *testing.T) {
	cfg := DefaultConfig(4)
	cfg.DirichletEps = 1
	cfg.DirichletAlpha = 0.3
	cfg.NumIterations = 1 // only updateRoot runs; Validate still requires >= 1
	e, err := New[twoChoiceState](cfg, fourActionEnv{}, zeroEvaluator{actions: 4})
	require.NoError(t, err)
	e.Reset(7)

	require.NoError(t, e.updateRoot(twoChoiceState{}))
	root := e.Arena().At(tree.Root)
	var sum float32
	for _, p := range root.P {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-5)
}
