// Package sequential provides the serial executor: it runs every loop on
// a single worker, in index order, on the calling goroutine. It backs the
// serial policy, and is useful for testing and debugging loops that are
// normally run in parallel.
//
// It is not recommended to use this executor as a general replacement for
// a plain for loop, because it is almost certainly less efficient.
package sequential

import (
	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/iterspace"
)

// Executor is the serial forall.Executor.
//
// Whatever the policy and team size of a loop, all iterations run on
// worker 0 of the team. Loops complete before the Execute methods
// return, so the returned Join never blocks.
type Executor struct{}

func worker(l forall.Loop) forall.Worker {
	return forall.NewWorker(0, max(l.Team, 1), l.Base)
}

// ExecuteRange visits begin, begin+stride, ... in order.
func (Executor) ExecuteRange(l forall.Loop, begin, stride int) forall.Join {
	if l.Len <= 0 {
		return forall.Done
	}
	w := worker(l)
	for pos, i := 0, begin; pos < l.Len; pos, i = pos+1, i+stride {
		l.Body(w, i)
	}
	return forall.Done
}

// ExecuteIndirect visits indices[0:l.Len] in list order.
func (Executor) ExecuteIndirect(l forall.Loop, indices []int) forall.Join {
	if l.Len <= 0 {
		return forall.Done
	}
	w := worker(l)
	for _, i := range indices[:l.Len] {
		l.Body(w, i)
	}
	return forall.Done
}

// ExecuteNested visits the positions of s in order. The team of a nested
// loop collapses to a single worker.
func (Executor) ExecuteNested(l forall.Loop, s iterspace.Space) forall.Join {
	if l.Len <= 0 {
		return forall.Done
	}
	w := worker(l)
	for pos := 0; pos < l.Len; pos++ {
		l.Body(w, s.At(pos))
	}
	return forall.Done
}

// Team returns the team size the serial executor uses for a loop over n
// indices: 1, or 0 for an empty loop.
func Team(n int) int {
	return internal.ComputeTeamSize(0, n, 1, 1)
}

var _ forall.Executor = Executor{}
