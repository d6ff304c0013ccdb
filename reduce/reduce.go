/*
Package reduce provides reduction parameters: typed accumulators for sum,
min, max, minloc and maxloc reductions that stay correct whatever the
number of workers executing a loop and however its iterations are divided
among them.

Every parameter follows the same lifecycle:

	Uninitialized -> Initialized -> Combining -> Resolved

Init binds one scratch slot per participating worker to the identity of
the operation. Combine updates only the slot owned by the calling worker,
so workers never need to lock. Once all workers have passed the governing
barrier, Sync records that fact and Resolve merges the slots pairwise into
the parameter's value. Release drops the slots. A resolved parameter can
be dispatched again and keeps accumulating.

Init, Sync, Resolve and Release are called by the dispatch engine; loop
bodies only call Combine (or one of its shorthands), and callers only read
results with Get after the dispatch has completed.

Misusing the lifecycle, for example combining before initialization or
reading a result before the completion token of a dispatch without a
trailing barrier has been waited for, panics with one of the errors
declared in this package.
*/
package reduce

import (
	"errors"
	"strconv"
)

var (
	// ErrNotInitialized is the panic value when a parameter is combined,
	// synchronized or resolved outside of a dispatch.
	ErrNotInitialized = errors.New("reduce: parameter is not initialized")

	// ErrUnsynchronized is the panic value when Resolve is called before
	// the governing barrier or synchronization has happened.
	ErrUnsynchronized = errors.New("reduce: resolve before synchronization")

	// ErrUnresolved is the panic value when a result is read while a
	// dispatch is still in flight.
	ErrUnresolved = errors.New("reduce: result read before resolve")

	// ErrInFlight is the panic value when a parameter that is already part
	// of a dispatch is initialized again.
	ErrInFlight = errors.New("reduce: parameter is already in flight")

	// ErrWorkerSlot is the panic value when a worker combines into a slot
	// that was not allocated for it.
	ErrWorkerSlot = errors.New("reduce: worker has no scratch slot")

	// ErrUnknownOp is returned by Lookup for operations without a combiner.
	ErrUnknownOp = errors.New("reduce: unknown operation")
)

// NoLocation is the location of a minloc or maxloc result that has not
// seen any value.
const NoLocation = -1

// Op is a reduction operation.
type Op int

const (
	OpSum Op = iota + 1
	OpMin
	OpMax
	OpMinLoc
	OpMaxLoc
)

func (op Op) String() string {
	switch op {
	case OpSum:
		return "sum"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpMinLoc:
		return "minloc"
	case OpMaxLoc:
		return "maxloc"
	default:
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
}

// State is the lifecycle state of a parameter.
type State int32

const (
	Uninitialized State = iota
	Initialized
	Combining
	Resolved
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Combining:
		return "combining"
	case Resolved:
		return "resolved"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// InFlight reports whether a parameter in state s is part of a running
// dispatch.
func (s State) InFlight() bool { return s == Initialized || s == Combining }

// A Number is a type that can be reduced.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

/*
A Param is the engine-facing side of a reduction parameter.

Init allocates workers slots. InitSegments allocates outer*inner slots for a
segmented dispatch, where outer worker o owns the block of slots from
o*inner to (o+1)*inner for the segments it executes, plus one accumulator;
ResetBlock gives a segment fresh slots, and FoldBlock folds the resolved
partial result of a segment into the accumulator of o.
*/
type Param interface {
	Op() Op
	State() State

	Init(workers int)
	InitSegments(outer, inner int)
	ResetBlock(outer int)
	FoldBlock(outer int)
	Sync()
	Resolve()
	Release()
}
