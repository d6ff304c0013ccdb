package internal

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTeamSize(t *testing.T) {
	assert.Equal(t, 4, ComputeTeamSize(0, 1000, 4, 0))
	assert.Equal(t, 3, ComputeTeamSize(0, 3, 8, 0))
	assert.Equal(t, 2, ComputeTeamSize(0, 1000, 8, 2))
	assert.Equal(t, 0, ComputeTeamSize(5, 5, 8, 0))
	assert.Equal(t, min(runtime.GOMAXPROCS(0), 1000), ComputeTeamSize(0, 1000, 0, 0))
	assert.Panics(t, func() { ComputeTeamSize(5, 4, 1, 0) })
	assert.Panics(t, func() { ComputeTeamSize(0, 4, -1, 0) })
}

func TestWrapPanic(t *testing.T) {
	assert.Nil(t, WrapPanic(nil))

	sentinel := errors.New("boom")
	p := WrapPanic(sentinel)
	err, ok := p.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, sentinel)

	s, ok := WrapPanic("text").(string)
	require.True(t, ok)
	assert.Contains(t, s, "text")
	assert.Contains(t, s, "rethrown at")
}

func TestSlotsTree(t *testing.T) {
	s := MakeSlots(7, 8, 0, -1)
	for i := range s {
		s[i].Value = i + 1
	}
	sum := s.Tree(0, 7, func(acc *Slot[int], in Slot[int]) { acc.Value += in.Value })
	assert.Equal(t, 28, sum.Value)

	b := MakeSlots(6, 0, 0, -1)
	for i := range b {
		b[i].Value = 10 * i
	}
	part := b.Tree(3, 6, func(acc *Slot[int], in Slot[int]) { acc.Value += in.Value })
	assert.Equal(t, 120, part.Value)
	assert.Equal(t, []int{0, 10}, []int{b[0].Value, b[1].Value}, "slots outside the range are untouched")

	assert.Panics(t, func() { MakeSlots(9, 8, 0, -1) })
	assert.Panics(t, func() { s.Tree(2, 2, nil) })
}
