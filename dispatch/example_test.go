package dispatch_test

import (
	"fmt"

	"github.com/exascience/forall"
	"github.com/exascience/forall/dispatch"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/reduce"
	"github.com/exascience/forall/resources"
)

func ExampleForall() {
	values := []int{7, 3, 9, 3, 1, 5}

	minloc := reduce.NewMinLoc[int]()
	sum := reduce.NewSum[int]()
	ev, err := dispatch.Forall(resources.Host{}, policy.DynamicPolicy(2).NoWait(), iterspace.MustRange(0, len(values)),
		func(w forall.Worker, i int) {
			minloc.Combine(w, i, values[i])
			sum.Add(w, values[i])
		},
		minloc, sum,
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	ev.Wait()

	fmt.Println(minloc.Get())
	fmt.Println(sum.Get())

	// Output:
	// 1 4
	// 28
}

func ExampleForall_segmented() {
	space := new(iterspace.Segmented).
		Push(iterspace.MustRange(0, 10), policy.StaticPolicy(0)).
		Push(iterspace.MustRange(10, 15), policy.SerialPolicy()).
		Push(iterspace.NewIndirection(20, 21, 22), policy.GuidedPolicy(0))

	count := reduce.NewSum[int]()
	ev, err := dispatch.Forall(nil, policy.AutoPolicy(), space, func(w forall.Worker, _ int) {
		count.Add(w, 1)
	}, count)
	if err != nil {
		fmt.Println(err)
		return
	}
	ev.Wait()
	fmt.Println(count.Get())

	// Output:
	// 18
}

func ExampleForallMinLoc() {
	values := []float64{2.5, -1, 4, -0.5}

	minimum, loc := 0.0, reduce.NoLocation
	err := dispatch.ForallMinLoc(nil, policy.GuidedPolicy(1), iterspace.MustRange(0, len(values)), &minimum, &loc,
		func(i int, m *float64, l *int) {
			if values[i] < *m {
				*m, *l = values[i], i
			}
		},
	)
	fmt.Println(minimum, loc, err)

	// Output:
	// -1 1 <nil>
}

func ExampleCompose() {
	_, err := dispatch.Compose(policy.RuntimePolicy().NoWait(), iterspace.MustRange(0, 10))
	fmt.Println(err)

	// Output:
	// dispatch: no handler registered (policy=runtime,nowait, space=range)
}
