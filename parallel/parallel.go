// Package parallel provides the host executor: it runs worksharing loops
// on a team of goroutines, with static, dynamic, guided and auto
// scheduling.
//
// A team is forked by recursive bisection over worker ids, and joined
// again before a loop with a trailing barrier returns. If one or more
// iterations panic, the corresponding goroutines recover the panics, and
// the join eventually panics with the left-most recovered panic value.
package parallel

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

// Executor is the host forall.Executor. The zero Executor is ready to use.
type Executor struct {
	// Runtime is the schedule used for loops with the runtime policy.
	// The zero value is serial. Runtime and nested schedules fall back
	// to auto.
	Runtime policy.Policy

	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (x *Executor) logger() *slog.Logger {
	if x.Logger == nil {
		return discard
	}
	return x.Logger
}

// Schedule resolves a runtime policy to the executor's default schedule,
// keeping the barrier of p. Other policies are returned unchanged.
func (x *Executor) Schedule(p policy.Policy) policy.Policy {
	if p.Kind() != policy.Runtime {
		return p
	}
	s := x.Runtime
	switch s.Kind() {
	case policy.Runtime, policy.NestedTeam:
		s = policy.AutoPolicy()
	}
	if p.Barrier() {
		return s.WithBarrier()
	}
	return s.NoWait()
}

// ExecuteRange visits begin, begin+stride, ... for l.Len positions.
func (x *Executor) ExecuteRange(l forall.Loop, begin, stride int) forall.Join {
	body := l.Body
	return x.execute(l, func(w forall.Worker, low, high int) {
		for pos := low; pos < high; pos++ {
			body(w, begin+pos*stride)
		}
	})
}

// ExecuteIndirect visits indices[0:l.Len].
func (x *Executor) ExecuteIndirect(l forall.Loop, indices []int) forall.Join {
	body := l.Body
	return x.execute(l, func(w forall.Worker, low, high int) {
		for _, i := range indices[low:high] {
			body(w, i)
		}
	})
}

/*
ExecuteNested forks a team of l.Team workers, and then shares the loop
over s among the members of the team with the inner policy l.Policy.

Unlike ExecuteRange and ExecuteIndirect, ExecuteNested always joins the
team before it returns. If the inner policy has no trailing barrier,
members that run out of work leave the inner loop without waiting for
the others, but the team region itself still ends with a join.
*/
func (x *Executor) ExecuteNested(l forall.Loop, s iterspace.Space) forall.Join {
	if l.Len <= 0 {
		return forall.Done
	}
	p := x.Schedule(l.Policy)
	team := teamSize(l, p)
	x.logger().Debug("nested team",
		slog.Int("team", team),
		slog.String("inner", p.String()),
		slog.String("space", s.Kind().String()),
		slog.Int("len", l.Len))
	share := worksharing(p, l.Len, team)
	body := l.Body
	if pv := fork(0, team, func(id int) {
		w := forall.NewWorker(id, team, l.Base)
		share(id, func(low, high int) {
			for pos := low; pos < high; pos++ {
				body(w, s.At(pos))
			}
		})
	}); pv != nil {
		panic(pv)
	}
	return forall.Done
}

func teamSize(l forall.Loop, p policy.Policy) int {
	if !p.Parallel() {
		return 1
	}
	return internal.ComputeTeamSize(0, l.Len, max(l.Team, 1), 0)
}

func (x *Executor) execute(l forall.Loop, visit func(w forall.Worker, low, high int)) forall.Join {
	if l.Len <= 0 {
		return forall.Done
	}
	p := x.Schedule(l.Policy)
	team := teamSize(l, p)
	var run func() interface{}
	if p.Kind() == policy.Auto {
		run = func() interface{} {
			return bisect(0, l.Len, 0, team, func(id, low, high int) {
				visit(forall.NewWorker(id, team, l.Base), low, high)
			})
		}
	} else {
		share := worksharing(p, l.Len, team)
		run = func() interface{} {
			return fork(0, team, func(id int) {
				w := forall.NewWorker(id, team, l.Base)
				share(id, func(low, high int) { visit(w, low, high) })
			})
		}
	}
	if p.Barrier() {
		if pv := run(); pv != nil {
			panic(pv)
		}
		return forall.Done
	}
	return async(run)
}

// async starts run in its own goroutine and returns a join for it.
func async(run func() interface{}) forall.Join {
	done := make(chan struct{})
	var pv interface{}
	go func() {
		defer close(done)
		pv = run()
	}()
	return func() {
		<-done
		if pv != nil {
			panic(pv)
		}
	}
}

// recovered calls f and returns its panic value, with a stack trace.
func recovered(f func()) (pv interface{}) {
	defer func() {
		pv = internal.WrapPanic(recover())
	}()
	f()
	return nil
}

// fork runs f for every worker id from low to high, each in its own
// goroutine except the left-most one, and returns the left-most panic
// value, or nil.
func fork(low, high int, f func(id int)) interface{} {
	switch n := high - low; {
	case n == 1:
		return recovered(func() { f(low) })
	case n > 1:
		mid := low + n/2
		var p1 interface{}
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			p1 = fork(mid, high, f)
		}()
		p0 := fork(low, mid, f)
		wg.Wait()
		if p0 != nil {
			return p0
		}
		return p1
	default:
		panic(fmt.Sprintf("invalid team: %v:%v", low, high))
	}
}

// bisect divides the positions from low to high into n batches, and runs
// f for each batch in parallel, with the ids from id to id+n. It returns
// the left-most panic value, or nil.
func bisect(low, high, id, n int, f func(id, low, high int)) interface{} {
	switch {
	case n == 1:
		return recovered(func() { f(id, low, high) })
	case n > 1:
		batchSize := ((high - low - 1) / n) + 1
		half := n / 2
		mid := low + batchSize*half
		if mid >= high {
			return recovered(func() { f(id, low, high) })
		}
		var p1 interface{}
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			p1 = bisect(mid, high, id+half, n-half, f)
		}()
		p0 := bisect(low, mid, id, half, f)
		wg.Wait()
		if p0 != nil {
			return p0
		}
		return p1
	default:
		panic(fmt.Sprintf("invalid number of batches: %v", n))
	}
}

/*
worksharing returns the function that the member id of a team calls to
claim its share of the positions from 0 to n, for schedule p. The member
calls f for every block it claims.

Static blocks are dealt round-robin before the loop starts; static with a
chunk size <= 0 gives every member one contiguous block, which is also
how auto shares a loop inside a nested team. Dynamic and guided blocks
are claimed from a shared cursor.
*/
func worksharing(p policy.Policy, n, team int) func(id int, f func(low, high int)) {
	switch p.Kind() {
	case policy.Serial:
		return func(id int, f func(low, high int)) {
			if id == 0 {
				f(0, n)
			}
		}
	case policy.Auto, policy.Static:
		chunk := forall.ComputeEffectiveChunk(0, n, team, p.Chunk())
		stride := team * chunk
		return func(id int, f func(low, high int)) {
			for low := id * chunk; low < n; low += stride {
				f(low, min(low+chunk, n))
			}
		}
	case policy.Dynamic:
		chunk := max(p.Chunk(), 1)
		var cursor atomic.Int64
		return func(_ int, f func(low, high int)) {
			for {
				high := int(cursor.Add(int64(chunk)))
				low := high - chunk
				if low >= n {
					return
				}
				f(low, min(high, n))
			}
		}
	case policy.Guided:
		minChunk := max(p.Chunk(), 1)
		var cursor atomic.Int64
		return func(_ int, f func(low, high int)) {
			for {
				low := int(cursor.Load())
				if low >= n {
					return
				}
				size := max(((n-low-1)/team)+1, minChunk)
				high := min(low+size, n)
				if cursor.CompareAndSwap(int64(low), int64(high)) {
					f(low, high)
				}
			}
		}
	default:
		panic(fmt.Sprintf("parallel: no worksharing for policy %v", p))
	}
}

var _ forall.Executor = (*Executor)(nil)
