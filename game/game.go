// Package game defines the collaborator contracts the engine drives:
// the environment (pure game rules) and the evaluator (policy/value
// leaf function). Neither is implemented here — see env/ and eval/ for
// reference implementations — this package only fixes the shape every
// engine instantiation depends on, per §6 of the design.
package game

// Environment is a pure, deterministic game-rules collaborator. State is
// the embedding type the engine's arena stores at each node; it must be
// safely copyable by value (Step must not mutate its receiver-equivalent
// input in place).
type Environment[State any] interface {
	// InitialState returns a fresh starting state for the given seed.
	InitialState(seed int64) State

	// Step applies action to state and returns the resulting state, the
	// per-player reward vector (length NumPlayers), and whether the
	// resulting state is terminal. Step must be pure: identical
	// (state, action) must always produce an identical result.
	Step(state State, action int) (next State, reward []float32, terminated bool)

	// LegalActionMask returns a boolean vector of length ActionShape
	// marking which actions are legal from state.
	LegalActionMask(state State) []bool

	// NumPlayers returns the number of distinct reward slots a terminal
	// state reports.
	NumPlayers() int

	// ActionShape returns A, the fixed number of actions in the space.
	ActionShape() int

	// CurrentPlayer returns the index (0-based, < NumPlayers) of the
	// player to move at state.
	CurrentPlayer(state State) int
}

// Evaluator is a pure leaf function: given an observation derived from a
// state, it returns unnormalized policy logits (length A) and a scalar
// value estimate in [-1, 1] from the perspective of the state's current
// player.
type Evaluator[State any] interface {
	Evaluate(state State) (policyLogits []float32, value float32)
}
