package reduce

import (
	"fmt"
	"math"
	"reflect"

	"github.com/exascience/forall/internal"
)

// A Slot is the scratch storage of one worker: the partial value, its
// location for minloc and maxloc, and whether any value has been seen.
type Slot[T Number] = internal.Slot[T]

// A Combiner is the native combine mechanism of one operation for one
// element type.
type Combiner[T Number] struct {
	// Identity is the value of an empty slot.
	Identity T

	// Combine folds the value v at location loc into a worker's slot.
	Combine func(s *Slot[T], v T, loc int)

	// Merge folds the partial result in into acc. Merge is associative;
	// for sums it is commutative up to floating-point reassociation.
	Merge func(acc *Slot[T], in Slot[T])
}

// Lookup resolves the combiner for op and element type T. Parameters call
// Lookup once, when they are created.
func Lookup[T Number](op Op) (Combiner[T], error) {
	switch op {
	case OpSum:
		return Combiner[T]{
			Identity: 0,
			Combine: func(s *Slot[T], v T, _ int) {
				s.Value += v
				s.Set = true
			},
			Merge: func(acc *Slot[T], in Slot[T]) {
				acc.Value += in.Value
				acc.Set = acc.Set || in.Set
			},
		}, nil
	case OpMin, OpMinLoc:
		return Combiner[T]{
			Identity: Highest[T](),
			Combine: func(s *Slot[T], v T, loc int) {
				if !s.Set || v < s.Value {
					s.Value, s.Loc, s.Set = v, loc, true
				}
			},
			Merge: func(acc *Slot[T], in Slot[T]) {
				if in.Set && (!acc.Set || in.Value < acc.Value) {
					*acc = in
				}
			},
		}, nil
	case OpMax, OpMaxLoc:
		return Combiner[T]{
			Identity: Lowest[T](),
			Combine: func(s *Slot[T], v T, loc int) {
				if !s.Set || v > s.Value {
					s.Value, s.Loc, s.Set = v, loc, true
				}
			},
			Merge: func(acc *Slot[T], in Slot[T]) {
				if in.Set && (!acc.Set || in.Value > acc.Value) {
					*acc = in
				}
			},
		}, nil
	default:
		return Combiner[T]{}, fmt.Errorf("%w: %v", ErrUnknownOp, op)
	}
}

// Highest returns the identity of min reductions for T: +Inf for floating
// point types, the largest representable value otherwise.
func Highest[T Number]() T {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	bits := rv.Type().Bits()
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(math.Inf(1))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(^uint64(0) >> (65 - bits)))
	default:
		rv.SetUint(^uint64(0) >> (64 - bits))
	}
	return v
}

// Lowest returns the identity of max reductions for T: -Inf for floating
// point types, the smallest representable value otherwise.
func Lowest[T Number]() T {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	bits := rv.Type().Bits()
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(math.Inf(-1))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(-int64(^uint64(0)>>(65-bits)) - 1)
	default:
		// zero
	}
	return v
}

/*
A Pack applies the reduction lifecycle to all parameters of one dispatch.

The capacity of a Pack is the upper bound on team sizes fixed at
configuration time; Init and InitSegments panic if it would be exceeded.
*/
type Pack struct {
	params   []Param
	capacity int
}

// NewPack returns a pack for params. A capacity <= 0 disables the bound.
// NewPack panics with ErrInFlight if a parameter is part of a dispatch
// that has not finished yet.
func NewPack(capacity int, params ...Param) Pack {
	for i, p := range params {
		if p == nil {
			panic(fmt.Sprintf("reduce: nil reduction parameter at position %v", i))
		}
		if p.State().InFlight() {
			panic(ErrInFlight)
		}
		for _, q := range params[:i] {
			if p == q {
				panic(fmt.Sprintf("reduce: reduction parameter passed twice at position %v", i))
			}
		}
	}
	return Pack{params: params, capacity: capacity}
}

// Len returns the number of parameters in the pack.
func (pk Pack) Len() int { return len(pk.params) }

// Init initializes every parameter with one slot per worker.
func (pk Pack) Init(workers int) {
	if pk.capacity > 0 && workers > pk.capacity {
		panic(fmt.Sprintf("reduce: %v workers exceed capacity %v", workers, pk.capacity))
	}
	for _, p := range pk.params {
		p.Init(workers)
	}
}

// InitSegments initializes every parameter for a segmented dispatch.
func (pk Pack) InitSegments(outer, inner int) {
	if pk.capacity > 0 && (outer > pk.capacity || inner > pk.capacity) {
		panic(fmt.Sprintf("reduce: team of %v x %v workers exceeds capacity %v", outer, inner, pk.capacity))
	}
	for _, p := range pk.params {
		p.InitSegments(outer, inner)
	}
}

// ResetBlock gives the next segment of outer worker o fresh slots.
func (pk Pack) ResetBlock(o int) {
	for _, p := range pk.params {
		p.ResetBlock(o)
	}
}

// FoldBlock folds the finished segment of outer worker o.
func (pk Pack) FoldBlock(o int) {
	for _, p := range pk.params {
		p.FoldBlock(o)
	}
}

// Sync records that the governing barrier has been reached.
func (pk Pack) Sync() {
	for _, p := range pk.params {
		p.Sync()
	}
}

// Resolve resolves every parameter.
func (pk Pack) Resolve() {
	for _, p := range pk.params {
		p.Resolve()
	}
}

// Release releases the scratch slots of every parameter. It is safe to
// call Release on every exit path, including after Resolve.
func (pk Pack) Release() {
	for _, p := range pk.params {
		p.Release()
	}
}

// Finish synchronizes, resolves and releases every parameter. The slots
// are released even if resolving panics.
func (pk Pack) Finish() {
	defer pk.Release()
	pk.Sync()
	pk.Resolve()
}
