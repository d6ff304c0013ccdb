package iterspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

func collect(s iterspace.Space) []int {
	out := make([]int, s.Len())
	for pos := range out {
		out[pos] = s.At(pos)
	}
	return out
}

func TestRange(t *testing.T) {
	r, err := iterspace.NewRange(3, 8)
	require.NoError(t, err)
	assert.Equal(t, iterspace.KindRange, r.Kind())
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 3, r.Begin())
	assert.Equal(t, 8, r.End())
	assert.Equal(t, []int{3, 4, 5, 6, 7}, collect(r))

	empty, err := iterspace.NewRange(5, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = iterspace.NewRange(5, 4)
	assert.ErrorIs(t, err, iterspace.ErrInvalidRange)
}

func TestStrided(t *testing.T) {
	s, err := iterspace.NewStrided(0, 100, 5)
	require.NoError(t, err)
	assert.Equal(t, 20, s.Len())
	assert.Equal(t, 5, s.Stride())
	got := collect(s)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 95, got[19])

	assert.Equal(t, 4, iterspace.MustStrided(1, 11, 3).Len()) // 1 4 7 10
	assert.Equal(t, 0, iterspace.MustStrided(7, 7, 3).Len())

	_, err = iterspace.NewStrided(0, 10, 0)
	assert.ErrorIs(t, err, iterspace.ErrInvalidStride)
	_, err = iterspace.NewStrided(0, 10, -2)
	assert.ErrorIs(t, err, iterspace.ErrInvalidStride)
	_, err = iterspace.NewStrided(10, 0, 2)
	assert.ErrorIs(t, err, iterspace.ErrInvalidRange)
}

func TestIndirection(t *testing.T) {
	x := iterspace.NewIndirection(7, 3, 9, 3, 1, 5)
	assert.Equal(t, 6, x.Len())
	assert.Equal(t, 7, x.Begin())
	assert.Equal(t, 10, x.End())
	assert.Equal(t, []int{7, 3, 9, 3, 1, 5}, collect(x))

	empty := iterspace.NewIndirection()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.End())
}

func TestSegmented(t *testing.T) {
	s := new(iterspace.Segmented).
		Push(iterspace.MustRange(0, 10), policy.StaticPolicy(0)).
		Push(iterspace.MustRange(10, 10), policy.SerialPolicy()).
		Push(iterspace.MustRange(10, 15), policy.DynamicPolicy(2)).
		Push(iterspace.NewIndirection(20, 21, 22), policy.SerialPolicy())

	assert.Equal(t, iterspace.KindSegmented, s.Kind())
	assert.Equal(t, 18, s.Len())
	assert.Equal(t, 4, s.SegmentCount())
	assert.Equal(t, 10, s.Offset(2))
	assert.Equal(t, 15, s.Offset(3))
	assert.Equal(t, iterspace.KindIndirection, s.SegmentAt(3).Kind)
	assert.Equal(t, 0, s.Begin())
	assert.Equal(t, 23, s.End())

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 20, 21, 22}
	assert.Equal(t, want, collect(s))
	assert.Panics(t, func() { s.At(18) })
}

func TestNewSegmented(t *testing.T) {
	s := iterspace.NewSegmented(
		iterspace.Segment{Kind: iterspace.KindStrided, Space: iterspace.MustStrided(0, 6, 2), Policy: policy.AutoPolicy()},
	)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{0, 2, 4}, collect(s))
	assert.Panics(t, func() { iterspace.NewSegmented(iterspace.Segment{}) })
}
