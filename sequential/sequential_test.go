package sequential

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exascience/forall"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

func record(team, base int) (*[]int, *[]int, forall.Loop) {
	var indices, slots []int
	return &indices, &slots, forall.Loop{Team: team, Base: base, Policy: policy.DynamicPolicy(4), Body: func(w forall.Worker, i int) {
		indices = append(indices, i)
		slots = append(slots, w.Slot())
	}}
}

func TestExecuteRange(t *testing.T) {
	indices, slots, l := record(4, 8)
	l.Len = 5
	Executor{}.ExecuteRange(l, 3, 2)()
	assert.Equal(t, []int{3, 5, 7, 9, 11}, *indices)
	assert.Equal(t, []int{8, 8, 8, 8, 8}, *slots)
}

func TestExecuteIndirect(t *testing.T) {
	indices, _, l := record(1, 0)
	l.Len = 3
	Executor{}.ExecuteIndirect(l, []int{9, 2, 9, 4})()
	assert.Equal(t, []int{9, 2, 9}, *indices)
}

func TestExecuteNested(t *testing.T) {
	indices, _, l := record(0, 0)
	s := iterspace.MustStrided(0, 10, 4)
	l.Len = s.Len()
	Executor{}.ExecuteNested(l, s)()
	assert.Equal(t, []int{0, 4, 8}, *indices)
}

func TestEmpty(t *testing.T) {
	indices, _, l := record(2, 0)
	Executor{}.ExecuteRange(l, 0, 1)()
	Executor{}.ExecuteIndirect(l, nil)()
	assert.Empty(t, *indices)
	assert.Equal(t, 0, Team(0))
	assert.Equal(t, 1, Team(100))
}
