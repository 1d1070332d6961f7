// Command bench exercises the engine against a deliberately undersized
// arena, forcing both the §4.3 overflow no-op path and subtree promotion
// on every committed move, and reports iteration throughput.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/nullmove/arborist/env/tictactoe"
	"github.com/nullmove/arborist/eval/linear"
	"github.com/nullmove/arborist/mcts"
)

var (
	iterations = flag.Int("iterations", 256, "MCTS iterations per move")
	maxNodes   = flag.Int("max_nodes", 32, "undersized arena capacity, forces reuse/overflow")
	moves      = flag.Int("moves", 9, "number of moves to play before stopping")
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

	engine, err := mcts.New[tictactoe.State](cfg, env, eval)
	if err != nil {
		log.Fatalf("could not build engine: %v", err)
	}
	engine.Reset(0)

	state := env.InitialState(0)
	var totalIterations int
	start := time.Now()

	for m := 0; m < *moves; m++ {
		_, err := engine.Search(state, cfg.NumIterations)
		if err != nil {
			log.Fatalf("move %d: search failed: %v", m, err)
		}
		totalIterations += cfg.NumIterations

		action, _ := engine.SampleRootAction()
		next, _, terminated := env.Step(state, action)
		log.Printf("move %d: action=%d next_empty=%d full=%t", m, action, engine.Arena().NextEmpty(), engine.Arena().Full())
		engine.Commit(action, terminated)
		state = next
		if terminated {
			log.Printf("game terminated at move %d", m)
			break
		}
	}

	elapsed := time.Since(start)
	log.Printf("ran %d iterations in %s (%.0f iterations/sec)",
		totalIterations, elapsed, float64(totalIterations)/elapsed.Seconds())
}
