// Package chess is a reference game.Environment wrapping
// github.com/notnil/chess. Unlike the teacher's game.Chess, it is pure:
// Step never mutates its receiver, returning a fresh State value, and
// its UCI action space is generated programmatically rather than read
// from an external move-list file.
package chess

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// State is an immutable snapshot: the underlying *chess.Game is never
// mutated after it is produced by Step, only cloned from.
type State struct {
	game *chess.Game
}

// Env implements game.Environment[State] over a fixed UCI action space.
type Env struct {
	actions []string
	index   map[string]int
}

// New builds an Env with a programmatically generated action space:
// every square-to-square move, plus the four promotion-piece variants
// for moves landing on the first or last rank.
func New() *Env {
	actions := buildActionSpace()
	index := make(map[string]int, len(actions))
	for i, a := range actions {
		index[a] = i
	}
	return &Env{actions: actions, index: index}
}

var files = []byte("abcdefgh")
var promotions = []string{"q", "r", "b", "n"}

func buildActionSpace() []string {
	var squares []string
	for _, f := range files {
		for rank := 1; rank <= 8; rank++ {
			squares = append(squares, string(f)+string(rune('0'+rank)))
		}
	}

	var actions []string
	for _, from := range squares {
		for _, to := range squares {
			if from == to {
				continue
			}
			actions = append(actions, from+to)
			lastRank := to[1]
			if lastRank == '1' || lastRank == '8' {
				for _, p := range promotions {
					actions = append(actions, from+to+p)
				}
			}
		}
	}
	return actions
}

func (e *Env) InitialState(seed int64) State {
	g := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	return State{game: g}
}

func (e *Env) Step(s State, action int) (State, []float32, bool) {
	if action < 0 || action >= len(e.actions) {
		panic(errors.Errorf("chess: action index out of range: %d", action))
	}
	next := s.game.Clone()
	if err := next.MoveStr(e.actions[action]); err != nil {
		panic(errors.Wrapf(err, "chess: illegal move selected by engine: %s", e.actions[action]))
	}

	outcome := next.Outcome()
	terminated := outcome != chess.NoOutcome
	reward := []float32{0, 0}
	switch outcome {
	case chess.WhiteWon:
		reward = []float32{1, -1}
	case chess.BlackWon:
		reward = []float32{-1, 1}
	}
	return State{game: next}, reward, terminated
}

func (e *Env) LegalActionMask(s State) []bool {
	mask := make([]bool, len(e.actions))
	for _, m := range s.game.ValidMoves() {
		if idx, ok := e.index[m.String()]; ok {
			mask[idx] = true
		}
	}
	return mask
}

func (e *Env) NumPlayers() int  { return 2 }
func (e *Env) ActionShape() int { return len(e.actions) }

func (e *Env) CurrentPlayer(s State) int {
	if s.game.Position().Turn() == chess.White {
		return 0
	}
	return 1
}
