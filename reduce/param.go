package reduce

import (
	"fmt"
	"sync/atomic"

	"github.com/exascience/forall"
	"github.com/exascience/forall/internal"
)

// param is the state shared by all typed reduction parameters.
type param[T Number] struct {
	op   Op
	comb Combiner[T]

	// the current value; merged with the slots on Resolve
	result Slot[T]

	state   atomic.Int32
	pending atomic.Bool // set from Init until Sync

	slots internal.Slots[T]
	acc   internal.Slots[T] // per outer worker, segmented dispatch only
	inner int
}

func (p *param[T]) init(op Op, opts []Option[T]) {
	comb, err := Lookup[T](op)
	if err != nil {
		panic(err)
	}
	p.op = op
	p.comb = comb
	p.result = Slot[T]{Value: comb.Identity, Loc: NoLocation}
	if op == OpSum {
		p.result.Set = true
	}
	for _, opt := range opts {
		opt(&p.result)
	}
}

// Op returns the reduction operation.
func (p *param[T]) Op() Op { return p.op }

// State returns the lifecycle state.
func (p *param[T]) State() State { return State(p.state.Load()) }

func (p *param[T]) begin() {
	if State(p.state.Load()).InFlight() {
		panic(ErrInFlight)
	}
	p.pending.Store(true)
	p.state.Store(int32(Initialized))
}

// Init allocates one slot per worker, bound to the identity.
func (p *param[T]) Init(workers int) {
	p.begin()
	p.slots = internal.MakeSlots(workers, 0, p.comb.Identity, NoLocation)
	p.acc = nil
	p.inner = 0
}

// InitSegments allocates a block of inner slots and one accumulator per
// outer worker.
func (p *param[T]) InitSegments(outer, inner int) {
	p.begin()
	p.slots = internal.MakeSlots(outer*inner, 0, p.comb.Identity, NoLocation)
	p.acc = internal.MakeSlots(outer, 0, p.comb.Identity, NoLocation)
	p.inner = inner
}

func (p *param[T]) mustBeInFlight() {
	if !State(p.state.Load()).InFlight() {
		panic(ErrNotInitialized)
	}
}

func (p *param[T]) block(o int) (low, high int) {
	p.mustBeInFlight()
	if p.acc == nil || o < 0 || o >= len(p.acc) {
		panic(fmt.Sprintf("reduce: no segment block for outer worker %v", o))
	}
	return o * p.inner, (o + 1) * p.inner
}

// ResetBlock resets the block of outer worker o to the identity.
func (p *param[T]) ResetBlock(o int) {
	low, high := p.block(o)
	p.slots.Fill(low, high, p.comb.Identity, NoLocation)
}

// FoldBlock merges the block of outer worker o into its accumulator.
func (p *param[T]) FoldBlock(o int) {
	low, high := p.block(o)
	if high > low {
		p.comb.Merge(&p.acc[o], p.slots.Tree(low, high, p.comb.Merge))
	}
}

// slot returns the slot owned by w, and moves p to the Combining state.
func (p *param[T]) slot(w forall.Worker) *Slot[T] {
	switch State(p.state.Load()) {
	case Initialized:
		p.state.CompareAndSwap(int32(Initialized), int32(Combining))
	case Combining:
	default:
		panic(ErrNotInitialized)
	}
	k := w.Slot()
	if k < 0 || k >= len(p.slots) {
		panic(fmt.Errorf("%w: slot %v of %v", ErrWorkerSlot, k, len(p.slots)))
	}
	return &p.slots[k]
}

// Combine folds the value v at index i into the slot of worker w. Only the
// worker's own slot is touched, so concurrent calls from different
// workers need no locking. Calls for the same worker must not overlap.
func (p *param[T]) Combine(w forall.Worker, i int, v T) {
	p.comb.Combine(p.slot(w), v, i)
}

// Sync records that all workers have passed the governing barrier.
func (p *param[T]) Sync() {
	p.mustBeInFlight()
	p.pending.Store(false)
}

// Resolve merges all slots, pairwise, into the value of p.
func (p *param[T]) Resolve() {
	p.mustBeInFlight()
	if p.pending.Load() {
		panic(ErrUnsynchronized)
	}
	src := p.slots
	if p.acc != nil {
		src = p.acc
	}
	if len(src) > 0 {
		p.comb.Merge(&p.result, src.Tree(0, len(src), p.comb.Merge))
	}
	p.state.Store(int32(Resolved))
}

// Release drops the scratch slots. A parameter released without being
// resolved keeps its previous value and can be dispatched again.
func (p *param[T]) Release() {
	p.slots = nil
	p.acc = nil
	p.inner = 0
	if State(p.state.Load()).InFlight() {
		p.pending.Store(false)
		p.state.Store(int32(Uninitialized))
	}
}

func (p *param[T]) get() Slot[T] {
	if State(p.state.Load()).InFlight() {
		panic(ErrUnresolved)
	}
	return p.result
}

// An Option sets the initial value of a reduction parameter.
type Option[T Number] func(*Slot[T])

// Initial sets the initial value. The initial value takes part in the
// reduction like any other value.
func Initial[T Number](v T) Option[T] {
	return func(s *Slot[T]) {
		s.Value, s.Set = v, true
	}
}

// InitialAt sets the initial value and its location, for minloc and
// maxloc parameters.
func InitialAt[T Number](v T, loc int) Option[T] {
	return func(s *Slot[T]) {
		s.Value, s.Loc, s.Set = v, loc, true
	}
}
