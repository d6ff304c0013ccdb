package forall

import (
	"fmt"

	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

type (
	// A Body is a loop body. It receives the worker executing the
	// iteration and the index being visited. Reduction parameters are
	// updated through the worker, for example sum.Combine(w, i, x).
	Body func(w Worker, i int)

	// A Join waits for a construct's team to finish. Calling it more
	// than once is allowed. If a loop body panicked, Join re-panics with
	// the left-most recovered panic value.
	Join func()
)

// A Worker identifies one member of the team executing a loop. The zero
// Worker is the single worker of a serial loop.
type Worker struct {
	id, team, slot int
}

// NewWorker returns the worker with the given id in a team of the given
// size. Its scratch slot is base + id.
func NewWorker(id, team, base int) Worker {
	if id < 0 || id >= team {
		panic(fmt.Sprintf("invalid worker id %v for team of size %v", id, team))
	}
	return Worker{id: id, team: team, slot: base + id}
}

// ID returns the worker's position in its team, with 0 <= ID < Team.
func (w Worker) ID() int { return w.id }

// Team returns the size of the worker's team.
func (w Worker) Team() int {
	if w.team == 0 {
		return 1
	}
	return w.team
}

// Slot returns the index of the reduction scratch slot owned by the worker.
func (w Worker) Slot() int { return w.slot }

// A Loop describes one worksharing loop over the positions 0 <= pos < Len
// of an iteration space.
type Loop struct {
	// Len is the number of positions to visit.
	Len int

	// Team is the number of workers, with 1 <= Team <= Len unless Len is 0.
	Team int

	// Policy is the worksharing policy. Runtime is resolved before a Loop
	// reaches an executor.
	Policy policy.Policy

	// Base is added to worker ids to obtain scratch slot indices.
	Base int

	Body Body
}

/*
An Executor is one backend capable of running worksharing loops.

ExecuteRange visits begin, begin+stride, ... for l.Len positions.
ExecuteIndirect visits indices[0:l.Len]. ExecuteNested first establishes a
team of l.Team workers and then shares the loop over s among them with
l.Policy as the inner policy.

When l.Policy has a trailing barrier, the Execute methods return only
after every index has been visited. Otherwise they may return early, and
the returned Join must be called before the results of the loop are used.
*/
type Executor interface {
	ExecuteRange(l Loop, begin, stride int) Join
	ExecuteIndirect(l Loop, indices []int) Join
	ExecuteNested(l Loop, s iterspace.Space) Join
}

// Done is a Join for work that has already completed.
func Done() {}

/*
ComputeEffectiveChunk determines the block size used to divide the range
from low to high, with 0 <= low <= high, among a team of the given size.

If chunk is > 0, the return value is chunk.

If chunk is <= 0, the return value is ceiling((high - low) / team), but at
least 1, which divides the range into one contiguous block per worker.
*/
func ComputeEffectiveChunk(low, high, team, chunk int) int {
	if (low < 0) || (high < low) {
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	if team <= 0 {
		panic(fmt.Sprintf("invalid team size: %v", team))
	}
	if chunk > 0 {
		return chunk
	}
	if size := high - low; size > 0 {
		return ((size - 1) / team) + 1
	}
	return 1
}
