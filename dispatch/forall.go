package dispatch

import (
	"github.com/exascience/forall"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/reduce"
	"github.com/exascience/forall/resources"
)

// Forall runs body for every index of s under policy p on res with the
// default engine, and returns its completion token. If res is nil, the
// default engine's host resource is used.
//
// The reduction parameters params are initialized before any index is
// visited, and resolved when the loop completes: before Forall returns
// if the token is completed, or in the token's Wait otherwise.
func Forall(res resources.Resource, p policy.Policy, s iterspace.Space, body forall.Body, params ...reduce.Param) (*resources.Event, error) {
	return Default().Forall(res, p, s, body, params...)
}

// The classic forms below hand the loop body a pointer into the scratch
// slot of the worker that executes the iteration, and store the reduced
// result back into the caller's variables. The initial values of those
// variables take part in the reduction. They always wait for the loop to
// complete, even for policies without a trailing barrier.

func wait(ev *resources.Event, err error) error {
	if err != nil {
		return err
	}
	ev.Wait()
	return nil
}

// ForallSum adds the contributions of body to *sum.
func ForallSum[T reduce.Number](res resources.Resource, p policy.Policy, s iterspace.Space, sum *T, body func(i int, sum *T)) error {
	r := reduce.NewSum(reduce.Initial(*sum))
	if err := wait(Forall(res, p, s, func(w forall.Worker, i int) { body(i, r.Ref(w)) }, r)); err != nil {
		return err
	}
	*sum = r.Get()
	return nil
}

// ForallMin reduces *min to the smallest value body leaves in its argument.
func ForallMin[T reduce.Number](res resources.Resource, p policy.Policy, s iterspace.Space, min *T, body func(i int, min *T)) error {
	r := reduce.NewMin(reduce.Initial(*min))
	if err := wait(Forall(res, p, s, func(w forall.Worker, i int) { body(i, r.Ref(w)) }, r)); err != nil {
		return err
	}
	*min = r.Get()
	return nil
}

// ForallMax reduces *max to the largest value body leaves in its argument.
func ForallMax[T reduce.Number](res resources.Resource, p policy.Policy, s iterspace.Space, max *T, body func(i int, max *T)) error {
	r := reduce.NewMax(reduce.Initial(*max))
	if err := wait(Forall(res, p, s, func(w forall.Worker, i int) { body(i, r.Ref(w)) }, r)); err != nil {
		return err
	}
	*max = r.Get()
	return nil
}

// ForallMinLoc reduces *min and *loc to the smallest value body leaves in
// its arguments, and its location.
func ForallMinLoc[T reduce.Number](res resources.Resource, p policy.Policy, s iterspace.Space, min *T, loc *int, body func(i int, min *T, loc *int)) error {
	r := reduce.NewMinLoc(reduce.InitialAt(*min, *loc))
	if err := wait(Forall(res, p, s, func(w forall.Worker, i int) {
		m, l := r.RefLoc(w)
		body(i, m, l)
	}, r)); err != nil {
		return err
	}
	*min, *loc = r.Get()
	return nil
}

// ForallMaxLoc reduces *max and *loc to the largest value body leaves in
// its arguments, and its location.
func ForallMaxLoc[T reduce.Number](res resources.Resource, p policy.Policy, s iterspace.Space, max *T, loc *int, body func(i int, max *T, loc *int)) error {
	r := reduce.NewMaxLoc(reduce.InitialAt(*max, *loc))
	if err := wait(Forall(res, p, s, func(w forall.Worker, i int) {
		m, l := r.RefLoc(w)
		body(i, m, l)
	}, r)); err != nil {
		return err
	}
	*max, *loc = r.Get()
	return nil
}
