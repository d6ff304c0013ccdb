package reduce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/forall"
)

func workers(team int) []forall.Worker {
	ws := make([]forall.Worker, team)
	for id := range ws {
		ws[id] = forall.NewWorker(id, team, 0)
	}
	return ws
}

func TestIdentities(t *testing.T) {
	assert.Equal(t, math.Inf(1), Highest[float64]())
	assert.Equal(t, math.Inf(-1), Lowest[float64]())
	assert.Equal(t, int8(math.MaxInt8), Highest[int8]())
	assert.Equal(t, int8(math.MinInt8), Lowest[int8]())
	assert.Equal(t, int64(math.MaxInt64), Highest[int64]())
	assert.Equal(t, int64(math.MinInt64), Lowest[int64]())
	assert.Equal(t, uint16(math.MaxUint16), Highest[uint16]())
	assert.Equal(t, uint16(0), Lowest[uint16]())
	assert.Equal(t, uint64(math.MaxUint64), Highest[uint64]())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup[int](Op(42))
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestLifecycle(t *testing.T) {
	sum := NewSum[int]()
	assert.Equal(t, Uninitialized, sum.State())
	assert.Equal(t, 0, sum.Get())

	sum.Init(4)
	assert.Equal(t, Initialized, sum.State())
	ws := workers(4)
	for i := 0; i < 100; i++ {
		sum.Add(ws[i%4], 1)
	}
	assert.Equal(t, Combining, sum.State())
	assert.PanicsWithValue(t, ErrUnresolved, func() { sum.Get() })
	assert.PanicsWithValue(t, ErrUnsynchronized, sum.Resolve)
	assert.PanicsWithValue(t, ErrInFlight, func() { sum.Init(2) })

	sum.Sync()
	sum.Resolve()
	sum.Release()
	assert.Equal(t, Resolved, sum.State())
	assert.Equal(t, 100, sum.Get())

	// a resolved parameter keeps accumulating
	sum.Init(1)
	sum.Add(ws[0], 5)
	sum.Sync()
	sum.Resolve()
	sum.Release()
	assert.Equal(t, 105, sum.Get())
}

func TestMisuse(t *testing.T) {
	w := forall.NewWorker(0, 1, 0)

	sum := NewSum[float64]()
	assert.PanicsWithValue(t, ErrNotInitialized, func() { sum.Add(w, 1) })
	assert.PanicsWithValue(t, ErrNotInitialized, sum.Sync)
	assert.PanicsWithValue(t, ErrNotInitialized, sum.Resolve)

	sum.Init(1)
	assert.Panics(t, func() { sum.Add(forall.NewWorker(1, 2, 0), 1) })
	func() {
		defer func() {
			err, _ := recover().(error)
			assert.ErrorIs(t, err, ErrWorkerSlot)
		}()
		sum.Add(forall.NewWorker(0, 1, 3), 1)
	}()

	// releasing an unresolved parameter restores the previous value
	sum.Release()
	assert.Equal(t, Uninitialized, sum.State())
	assert.Equal(t, 0.0, sum.Get())
}

func TestMinMax(t *testing.T) {
	values := []int{7, 3, 9, 3, 1, 5}

	for _, team := range []int{1, 2, 3, 6} {
		ws := workers(team)
		minimum, maximum := NewMin[int](), NewMax[int]()
		minloc, maxloc := NewMinLoc[int](), NewMaxLoc[int]()
		pack := NewPack(0, minimum, maximum, minloc, maxloc)
		pack.Init(team)
		for i, v := range values {
			w := ws[i%team]
			minimum.Combine(w, i, v)
			maximum.Combine(w, i, v)
			minloc.Combine(w, i, v)
			maxloc.Combine(w, i, v)
		}
		pack.Finish()

		assert.Equal(t, 1, minimum.Get(), "team %v", team)
		assert.Equal(t, 9, maximum.Get(), "team %v", team)
		v, loc := minloc.Get()
		assert.Equal(t, 1, v)
		assert.Equal(t, 4, loc)
		v, loc = maxloc.Get()
		assert.Equal(t, 9, v)
		assert.Equal(t, 2, loc)
	}
}

func TestInitialValues(t *testing.T) {
	w := forall.NewWorker(0, 1, 0)

	minimum := NewMin(Initial(-3.5))
	pack := NewPack(0, minimum)
	pack.Init(1)
	minimum.Combine(w, 0, 2)
	pack.Finish()
	assert.Equal(t, -3.5, minimum.Get())

	maxloc := NewMaxLoc(InitialAt(10, 99))
	pack = NewPack(0, maxloc)
	pack.Init(1)
	maxloc.Combine(w, 0, 10)
	maxloc.Combine(w, 1, 11)
	pack.Finish()
	v, loc := maxloc.Get()
	assert.Equal(t, 11, v)
	assert.Equal(t, 1, loc)

	sum := NewSum(Initial[uint](7))
	pack = NewPack(0, sum)
	pack.Init(0)
	pack.Finish()
	assert.Equal(t, uint(7), sum.Get())
	assert.PanicsWithValue(t, ErrInFlight, func() {
		sum.Init(1)
		NewPack(0, sum)
	})
}

func TestEmptyReduction(t *testing.T) {
	minloc := NewMinLoc[float32]()
	pack := NewPack(0, minloc)
	pack.Init(3)
	pack.Finish()
	v, loc := minloc.Get()
	assert.Equal(t, float32(math.Inf(1)), v)
	assert.Equal(t, NoLocation, loc)
}

func TestRefs(t *testing.T) {
	ws := workers(2)

	sum := NewSum[int]()
	minloc := NewMinLoc[int]()
	pack := NewPack(0, sum, minloc)
	pack.Init(2)
	for i, v := range []int{4, 8, 2, 6} {
		w := ws[i/2]
		*sum.Ref(w) += v
		if m, loc := minloc.RefLoc(w); v < *m {
			*m, *loc = v, i
		}
	}
	pack.Finish()

	assert.Equal(t, 20, sum.Get())
	v, loc := minloc.Get()
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, loc)
}

func TestSegmentBlocks(t *testing.T) {
	// two outer workers with inner teams of three; outer worker 0 runs
	// two segments, outer worker 1 runs one
	const inner = 3
	sum := NewSum[int]()
	maxloc := NewMaxLoc[int]()
	pack := NewPack(8, sum, maxloc)
	pack.InitSegments(2, inner)

	segment := func(o int, values map[int]int) {
		pack.ResetBlock(o)
		id := 0
		for i, v := range values {
			w := forall.NewWorker(id, inner, o*inner)
			sum.Combine(w, i, v)
			maxloc.Combine(w, i, v)
			id = (id + 1) % inner
		}
		pack.FoldBlock(o)
	}
	segment(0, map[int]int{0: 1, 1: 2, 2: 3})
	segment(1, map[int]int{10: 40, 11: 2})
	segment(0, map[int]int{20: 5})
	pack.Finish()

	assert.Equal(t, 53, sum.Get())
	v, loc := maxloc.Get()
	assert.Equal(t, 40, v)
	assert.Equal(t, 10, loc)
}

func TestPack(t *testing.T) {
	sum := NewSum[int]()
	assert.Panics(t, func() { NewPack(0, sum, sum) })
	assert.Panics(t, func() { NewPack(0, sum, nil) })

	pack := NewPack(2, sum)
	assert.Equal(t, 1, pack.Len())
	assert.Panics(t, func() { pack.Init(3) })
	assert.Panics(t, func() { pack.InitSegments(1, 3) })

	require.NotPanics(t, func() { pack.Init(2) })
	pack.Release()
	assert.Equal(t, Uninitialized, sum.State())
}

func TestTieKeepsLeftOperand(t *testing.T) {
	ws := workers(4)
	minloc := NewMinLoc[int]()
	pack := NewPack(0, minloc)
	pack.Init(4)
	for id, w := range ws {
		minloc.Combine(w, 100+id, 0)
	}
	pack.Finish()
	_, loc := minloc.Get()
	assert.Equal(t, 100, loc)
}
