// Command selfplay drives tictactoe.Env through the engine for a handful
// of games, printing the chosen action and root value at each ply. It is
// a demo harness for the mcts.Engine / game.Environment / game.Evaluator
// wiring, not a training loop.
package main

import (
	"flag"
	"log"

	"github.com/nullmove/arborist/env/tictactoe"
	"github.com/nullmove/arborist/eval/linear"
	"github.com/nullmove/arborist/mcts"
)

var (
	games      = flag.Int("games", 1, "number of self-play games to run")
	iterations = flag.Int("iterations", 64, "MCTS iterations per move")
	maxNodes   = flag.Int("max_nodes", 2048, "fixed arena capacity")
	seed       = flag.Int64("seed", 0, "engine seed")
)

func encodeBoard(s tictactoe.State) []float32 {
	out := make([]float32, 9)
	for i, v := range s.Board {
		out[i] = float32(v)
	}
	return out
}

func main() {
	flag.Parse()

	env := tictactoe.Env{}
	eval := linear.New[tictactoe.State](9, 9, encodeBoard)

	cfg := mcts.DefaultConfig(9)
	cfg.MaxNodes = *maxNodes
	cfg.NumIterations = *iterations

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	for gi := 0; gi < *games; gi++ {
		engine, err := mcts.New[tictactoe.State](cfg, env, eval)
		if err != nil {
			log.Fatalf("game %d: could not build engine: %v", gi, err)
		}
		engine.Reset(*seed + int64(gi))

		state := env.InitialState(*seed + int64(gi))
		ply := 0
		for {
			out, err := engine.Search(state, cfg.NumIterations)
			if err != nil {
				log.Fatalf("game %d ply %d: search failed: %v", gi, ply, err)
			}

			action, weights := engine.SampleRootAction()
			log.Printf("game %d ply %d: action=%d root_value=%.4f weights=%v",
				gi, ply, action, out.RootValue, weights)

			next, _, terminated := env.Step(state, action)
			engine.Commit(action, terminated)
			state = next
			ply++
			if terminated {
				log.Printf("game %d finished after %d plies", gi, ply)
				break
			}
		}
	}
}
