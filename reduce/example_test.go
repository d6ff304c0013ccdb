package reduce_test

import (
	"fmt"

	"github.com/exascience/forall"
	"github.com/exascience/forall/reduce"
)

func Example() {
	values := []float64{2.5, -1, 4, 0.5}

	minloc := reduce.NewMinLoc[float64]()
	sum := reduce.NewSum[float64]()
	pack := reduce.NewPack(0, minloc, sum)

	// normally done by the dispatch engine
	pack.Init(2)
	for i, v := range values {
		w := forall.NewWorker(i%2, 2, 0)
		minloc.Combine(w, i, v)
		sum.Combine(w, i, v)
	}
	pack.Finish()

	fmt.Println(minloc.Get())
	fmt.Println(sum.Get())

	// Output:
	// -1 1
	// 6
}
