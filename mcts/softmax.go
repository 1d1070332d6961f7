package mcts

import (
	"github.com/chewxy/math32"
	"gorgonia.org/vecf32"
)

// maskedSoftmax masks illegal actions to -Inf, then applies softmax. If
// every action is illegal, it returns an all-zero vector and anyLegal=false
// so the caller can apply the §7 "no legal actions -> terminal" rule.
func maskedSoftmax(logits []float32, legal []bool) (probs []float32, anyLegal bool) {
	masked := make([]float32, len(logits))
	maxVal := float32(math32.Inf(-1))
	for i, v := range logits {
		if legal[i] {
			masked[i] = v
			anyLegal = true
			if v > maxVal {
				maxVal = v
			}
		} else {
			masked[i] = float32(math32.Inf(-1))
		}
	}
	if !anyLegal {
		return make([]float32, len(logits)), false
	}

	shifted := make([]float32, len(masked))
	for i, v := range masked {
		if legal[i] {
			shifted[i] = v - maxVal
		} else {
			shifted[i] = float32(math32.Inf(-1))
		}
	}

	exps := make([]float32, len(shifted))
	for i, v := range shifted {
		if legal[i] {
			exps[i] = math32.Exp(v)
		}
	}

	sum := vecf32.Sum(exps)
	if sum == 0 {
		// degenerate underflow: fall back to a uniform distribution over
		// the legal actions rather than dividing by zero.
		out := make([]float32, len(logits))
		count := float32(0)
		for _, ok := range legal {
			if ok {
				count++
			}
		}
		for i, ok := range legal {
			if ok {
				out[i] = 1 / count
			}
		}
		return out, true
	}

	vecf32.Scale(exps, 1/sum)
	return exps, true
}
