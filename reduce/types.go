package reduce

import "github.com/exascience/forall"

// Sum is a sum reduction parameter. The zero Sum is not valid; use NewSum.
type Sum[T Number] struct{ param[T] }

// NewSum returns a sum reduction starting at 0, or at the Initial value.
func NewSum[T Number](opts ...Option[T]) *Sum[T] {
	s := new(Sum[T])
	s.init(OpSum, opts)
	return s
}

// Add adds v to the slot of worker w.
func (s *Sum[T]) Add(w forall.Worker, v T) { s.Combine(w, 0, v) }

// Ref returns a pointer to the partial sum owned by worker w, for loop
// bodies that accumulate directly.
func (s *Sum[T]) Ref(w forall.Worker) *T { return &s.slot(w).Value }

// Get returns the resolved sum.
func (s *Sum[T]) Get() T { return s.get().Value }

// Min is a min reduction parameter. The zero Min is not valid; use NewMin.
type Min[T Number] struct{ param[T] }

// NewMin returns a min reduction starting at the identity (the largest
// value of T), or at the Initial value.
func NewMin[T Number](opts ...Option[T]) *Min[T] {
	m := new(Min[T])
	m.init(OpMin, opts)
	return m
}

// Ref returns a pointer to the partial minimum owned by worker w, for loop
// bodies that update it directly.
func (m *Min[T]) Ref(w forall.Worker) *T {
	s := m.slot(w)
	s.Set = true
	return &s.Value
}

// Get returns the resolved minimum.
func (m *Min[T]) Get() T { return m.get().Value }

// Max is a max reduction parameter. The zero Max is not valid; use NewMax.
type Max[T Number] struct{ param[T] }

// NewMax returns a max reduction starting at the identity (the smallest
// value of T), or at the Initial value.
func NewMax[T Number](opts ...Option[T]) *Max[T] {
	m := new(Max[T])
	m.init(OpMax, opts)
	return m
}

// Ref returns a pointer to the partial maximum owned by worker w.
func (m *Max[T]) Ref(w forall.Worker) *T {
	s := m.slot(w)
	s.Set = true
	return &s.Value
}

// Get returns the resolved maximum.
func (m *Max[T]) Get() T { return m.get().Value }

/*
MinLoc is a minloc reduction parameter: it finds the minimum value and an
index at which it occurs. The zero MinLoc is not valid; use NewMinLoc.

If several indices hold the minimum, the reported location is one of them,
not necessarily the lowest; which one may depend on the number of workers
and the order in which segments finish.
*/
type MinLoc[T Number] struct{ param[T] }

// NewMinLoc returns a minloc reduction starting at the identity with
// location NoLocation, or at the InitialAt value.
func NewMinLoc[T Number](opts ...Option[T]) *MinLoc[T] {
	m := new(MinLoc[T])
	m.init(OpMinLoc, opts)
	return m
}

// RefLoc returns pointers to the partial minimum and its location owned
// by worker w.
func (m *MinLoc[T]) RefLoc(w forall.Worker) (*T, *int) {
	s := m.slot(w)
	s.Set = true
	return &s.Value, &s.Loc
}

// Get returns the resolved minimum and its location.
func (m *MinLoc[T]) Get() (T, int) {
	r := m.get()
	return r.Value, r.Loc
}

// MaxLoc is a maxloc reduction parameter, see MinLoc for the semantics of
// ties. The zero MaxLoc is not valid; use NewMaxLoc.
type MaxLoc[T Number] struct{ param[T] }

// NewMaxLoc returns a maxloc reduction starting at the identity with
// location NoLocation, or at the InitialAt value.
func NewMaxLoc[T Number](opts ...Option[T]) *MaxLoc[T] {
	m := new(MaxLoc[T])
	m.init(OpMaxLoc, opts)
	return m
}

// RefLoc returns pointers to the partial maximum and its location owned
// by worker w.
func (m *MaxLoc[T]) RefLoc(w forall.Worker) (*T, *int) {
	s := m.slot(w)
	s.Set = true
	return &s.Value, &s.Loc
}

// Get returns the resolved maximum and its location.
func (m *MaxLoc[T]) Get() (T, int) {
	r := m.get()
	return r.Value, r.Loc
}

var (
	_ Param = (*Sum[int])(nil)
	_ Param = (*Min[int])(nil)
	_ Param = (*Max[int])(nil)
	_ Param = (*MinLoc[int])(nil)
	_ Param = (*MaxLoc[int])(nil)
)
