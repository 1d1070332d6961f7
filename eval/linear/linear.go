// Package linear is a reference game.Evaluator: a single linear layer per
// head (policy logits, value) over a caller-supplied feature encoding,
// built as a small gorgonia.org/gorgonia expression graph and run through
// a gorgonia.org/tensor-backed TapeMachine. It exists so the engine and
// its cmd/ binaries have a concrete, trainable Evaluator to drive against
// without pulling in a full residual network stack.
package linear

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/pkg/errors"
)

// Encoder turns a game embedding into a fixed-length feature vector the
// network can consume. Callers own the encoding; the evaluator only knows
// its length.
type Encoder[S any] func(s S) []float32

// Evaluator wraps a linear policy head and a linear+tanh value head
// sharing a single input node, following the prediction-and-read pattern
// used throughout the gorgonia-based policies in the example pack: nodes
// are registered with G.Read once at graph-construction time, then the
// bound Go values are read back after each VM run.
type Evaluator[S any] struct {
	features int
	actions  int
	encode   Encoder[S]

	g     *G.ExprGraph
	input *G.Node
	vm    G.VM

	policyVal G.Value
	valueVal  G.Value
}

// New builds the evaluator's graph: policyLogits = Wp*x + bp,
// value = tanh(Wv*x + bv). Weights are Glorot-initialized, biases start
// at zero.
func New[S any](features, actions int, encode Encoder[S]) *Evaluator[S] {
	g := G.NewGraph()

	input := G.NewVector(g, tensor.Float32, G.WithShape(features), G.WithName("input"))

	wp := G.NewMatrix(g, tensor.Float32, G.WithShape(actions, features),
		G.WithName("w_policy"), G.WithInit(G.GlorotN(1.0)))
	bp := G.NewVector(g, tensor.Float32, G.WithShape(actions),
		G.WithName("b_policy"), G.WithInit(G.Zeroes()))

	wv := G.NewVector(g, tensor.Float32, G.WithShape(features),
		G.WithName("w_value"), G.WithInit(G.GlorotN(1.0)))
	bv := G.NewScalar(g, tensor.Float32, G.WithName("b_value"), G.WithInit(G.Zeroes()))

	policyLogits := G.Must(G.Add(G.Must(G.Mul(wp, input)), bp))
	valueLinear := G.Must(G.Add(G.Must(G.Mul(wv, input)), bv))
	value := G.Must(G.Tanh(valueLinear))

	var policyVal, valueVal G.Value
	G.Read(policyLogits, &policyVal)
	G.Read(value, &valueVal)

	vm := G.NewTapeMachine(g)

	return &Evaluator[S]{
		features:  features,
		actions:   actions,
		encode:    encode,
		g:         g,
		input:     input,
		vm:        vm,
		policyVal: policyVal,
		valueVal:  valueVal,
	}
}

// Evaluate satisfies game.Evaluator[S]. It panics on an encoder/shape
// mismatch or a graph execution error, matching the fail-fast style the
// env packages use for similarly "should never happen" conditions.
func (e *Evaluator[S]) Evaluate(s S) ([]float32, float32) {
	feat := e.encode(s)
	if len(feat) != e.features {
		panic(errors.Errorf("linear: encoder produced %d features, want %d", len(feat), e.features))
	}

	backing := make([]float32, e.features)
	copy(backing, feat)
	x := tensor.New(tensor.WithBacking(backing), tensor.WithShape(e.features))
	if err := G.Let(e.input, x); err != nil {
		panic(errors.Wrap(err, "linear: could not set input"))
	}

	e.vm.Reset()
	if err := e.vm.RunAll(); err != nil {
		panic(errors.Wrap(err, "linear: graph execution failed"))
	}

	logits := e.policyVal.Data().([]float32)
	out := make([]float32, len(logits))
	copy(out, logits)

	value := e.valueVal.Data().(float32)
	return out, value
}

// Graph exposes the underlying expression graph so a training loop can
// attach a loss and its own gradient-descent VM; Evaluate's own VM only
// ever reads the forward pass.
func (e *Evaluator[S]) Graph() *G.ExprGraph { return e.g }

// Actions reports the policy head's output width.
func (e *Evaluator[S]) Actions() int { return e.actions }
