package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepDoesNotMutateInput(t *testing.T) {
	env := Env{}
	s := env.InitialState(0)
	original := s
	_, _, _ = env.Step(s, 0)
	assert.Equal(t, original, s)
}

func TestWinIsDetected(t *testing.T) {
	env := Env{}
	s := State{Board: [9]int8{1, 1, 0, 2, 2, 0, 0, 0, 0}, Turn: 0}
	next, reward, terminated := env.Step(s, 2)
	assert.True(t, terminated)
	assert.Equal(t, int8(1), next.Board[2])
	assert.Equal(t, []float32{1, -1}, reward)
}

func TestDrawReportsZeroReward(t *testing.T) {
	env := Env{}
	s := State{Board: [9]int8{1, 2, 1, 1, 2, 2, 2, 1, 0}, Turn: 0}
	_, reward, terminated := env.Step(s, 8)
	assert.True(t, terminated)
	assert.Equal(t, []float32{0, 0}, reward)
}

func TestLegalActionMaskMarksEmptySquares(t *testing.T) {
	env := Env{}
	s := State{Board: [9]int8{1, 0, 2, 0, 0, 0, 0, 0, 0}}
	mask := env.LegalActionMask(s)
	assert.False(t, mask[0])
	assert.True(t, mask[1])
	assert.False(t, mask[2])
}
