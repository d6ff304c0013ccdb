package parallel

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/forall"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

var schedules = []policy.Policy{
	policy.SerialPolicy(),
	policy.AutoPolicy(),
	policy.StaticPolicy(0),
	policy.StaticPolicy(37),
	policy.DynamicPolicy(0),
	policy.DynamicPolicy(16),
	policy.GuidedPolicy(0),
	policy.GuidedPolicy(8),
	policy.RuntimePolicy(),
}

// counter records how often each index is visited, and by which workers.
type counter struct {
	visits  []atomic.Int32
	workers sync.Map
}

func newCounter(n int) *counter { return &counter{visits: make([]atomic.Int32, n)} }

func (c *counter) body(w forall.Worker, i int) {
	c.visits[i].Add(1)
	c.workers.Store(w.Slot(), w.Team())
}

func (c *counter) assertOnce(t *testing.T, visited func(i int) bool, msg ...interface{}) {
	t.Helper()
	for i := range c.visits {
		want := int32(0)
		if visited(i) {
			want = 1
		}
		if !assert.Equal(t, want, c.visits[i].Load(), append([]interface{}{"index %v"}, i)...) {
			t.Log(msg...)
			return
		}
	}
}

func TestExecuteRangeCoversOnce(t *testing.T) {
	x := &Executor{Runtime: policy.DynamicPolicy(3)}
	for _, team := range []int{1, 2, 4, 8} {
		for _, p := range schedules {
			c := newCounter(1000)
			join := x.ExecuteRange(forall.Loop{Len: 1000, Team: team, Policy: p, Body: c.body}, 0, 1)
			join()
			c.assertOnce(t, func(int) bool { return true }, p, team)
			c.workers.Range(func(slot, size any) bool {
				assert.Less(t, slot.(int), team)
				assert.LessOrEqual(t, size.(int), team)
				return true
			})
		}
	}
}

func TestExecuteStrided(t *testing.T) {
	var x Executor
	s := iterspace.MustStrided(0, 100, 5)
	for _, p := range schedules {
		c := newCounter(100)
		x.ExecuteRange(forall.Loop{Len: s.Len(), Team: 4, Policy: p, Body: c.body}, s.Begin(), s.Stride())()
		c.assertOnce(t, func(i int) bool { return i%5 == 0 }, p)
	}
}

func TestExecuteIndirect(t *testing.T) {
	var x Executor
	indices := []int{9, 2, 7, 0, 4}
	for _, p := range schedules {
		c := newCounter(10)
		x.ExecuteIndirect(forall.Loop{Len: len(indices), Team: 8, Policy: p, Body: c.body}, indices)()
		c.assertOnce(t, func(i int) bool {
			return i == 9 || i == 2 || i == 7 || i == 0 || i == 4
		}, p)
	}
}

func TestTeamIsClamped(t *testing.T) {
	var x Executor
	var ids sync.Map
	x.ExecuteRange(forall.Loop{Len: 3, Team: 8, Policy: policy.StaticPolicy(0), Body: func(w forall.Worker, _ int) {
		ids.Store(w.ID(), w.Team())
	}}, 0, 1)()
	ids.Range(func(id, team any) bool {
		assert.Equal(t, 3, team)
		return true
	})
}

func TestWorkerSlotsUseBase(t *testing.T) {
	var x Executor
	var slots sync.Map
	x.ExecuteRange(forall.Loop{Len: 100, Team: 4, Base: 8, Policy: policy.StaticPolicy(0), Body: func(w forall.Worker, _ int) {
		slots.Store(w.Slot(), true)
	}}, 0, 1)()
	for slot := 8; slot < 12; slot++ {
		_, ok := slots.Load(slot)
		assert.True(t, ok, "slot %v", slot)
	}
}

func TestStaticBlocks(t *testing.T) {
	blocks := make(map[int][][2]int)
	var mu sync.Mutex
	share := worksharing(policy.StaticPolicy(10), 45, 2)
	for id := 0; id < 2; id++ {
		share(id, func(low, high int) {
			mu.Lock()
			blocks[id] = append(blocks[id], [2]int{low, high})
			mu.Unlock()
		})
	}
	assert.Equal(t, [][2]int{{0, 10}, {20, 30}, {40, 45}}, blocks[0])
	assert.Equal(t, [][2]int{{10, 20}, {30, 40}}, blocks[1])
}

func TestGuidedBlocksShrink(t *testing.T) {
	var sizes []int
	share := worksharing(policy.GuidedPolicy(2), 100, 4)
	share(0, func(low, high int) { sizes = append(sizes, high-low) })
	require.NotEmpty(t, sizes)
	assert.Equal(t, 25, sizes[0])
	total := 0
	for i, size := range sizes {
		total += size
		if i > 0 {
			assert.LessOrEqual(t, size, sizes[i-1])
		}
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, 2, sizes[len(sizes)-1])
}

func TestDynamicBlocks(t *testing.T) {
	var sizes []int
	share := worksharing(policy.DynamicPolicy(16), 40, 4)
	share(0, func(low, high int) { sizes = append(sizes, high-low) })
	assert.Equal(t, []int{16, 16, 8}, sizes)
}

func TestNoWait(t *testing.T) {
	var x Executor
	release := make(chan struct{})
	var sum atomic.Int64
	join := x.ExecuteRange(forall.Loop{Len: 1000, Team: 4, Policy: policy.DynamicPolicy(16).NoWait(), Body: func(_ forall.Worker, i int) {
		<-release
		sum.Add(int64(i))
	}}, 0, 1)
	close(release)
	join()
	join()
	assert.Equal(t, int64(999*1000/2), sum.Load())
}

func TestPanicPropagates(t *testing.T) {
	var x Executor
	boom := errors.New("boom")
	for _, p := range []policy.Policy{policy.AutoPolicy(), policy.GuidedPolicy(0), policy.StaticPolicy(0).NoWait()} {
		func() {
			defer func() {
				err, ok := recover().(error)
				if assert.True(t, ok, "%v", p) {
					assert.ErrorIs(t, err, boom)
				}
			}()
			x.ExecuteRange(forall.Loop{Len: 100, Team: 4, Policy: p, Body: func(_ forall.Worker, i int) {
				if i == 77 {
					panic(boom)
				}
			}}, 0, 1)()
			t.Errorf("no panic for %v", p)
		}()
	}
}

func TestExecuteNested(t *testing.T) {
	var buf bytes.Buffer
	x := Executor{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	s := iterspace.MustRange(0, 500)
	for _, inner := range []policy.Policy{policy.AutoPolicy(), policy.StaticPolicy(7).NoWait(), policy.GuidedPolicy(0), policy.RuntimePolicy()} {
		c := newCounter(500)
		x.ExecuteNested(forall.Loop{Len: s.Len(), Team: 3, Policy: inner, Body: c.body}, s)()
		c.assertOnce(t, func(int) bool { return true }, inner)
	}
	assert.Contains(t, buf.String(), "nested team")
	assert.Contains(t, buf.String(), "inner=static,7,nowait")
}

func TestSchedule(t *testing.T) {
	var x Executor
	assert.True(t, x.Schedule(policy.RuntimePolicy()).Equal(policy.SerialPolicy()))

	x.Runtime = policy.GuidedPolicy(4).NoWait()
	assert.True(t, x.Schedule(policy.RuntimePolicy()).Equal(policy.GuidedPolicy(4)))
	assert.True(t, x.Schedule(policy.RuntimePolicy().NoWait()).Equal(policy.GuidedPolicy(4).NoWait()))
	assert.True(t, x.Schedule(policy.StaticPolicy(2)).Equal(policy.StaticPolicy(2)))

	x.Runtime = policy.RuntimePolicy()
	assert.True(t, x.Schedule(policy.RuntimePolicy()).Equal(policy.AutoPolicy()))
}

func TestEmptyLoop(t *testing.T) {
	var x Executor
	x.ExecuteRange(forall.Loop{Len: 0, Team: 0, Policy: policy.AutoPolicy(), Body: func(forall.Worker, int) {
		t.Error("body called")
	}}, 5, 1)()
}
