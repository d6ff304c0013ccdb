package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// DefaultMaxWorkers is the default upper bound on the size of a team.
const DefaultMaxWorkers = 256

// ComputeTeamSize determines how many workers execute a loop over the range
// from low to high. If n is 0, runtime.GOMAXPROCS(0) is used. The result is
// clamped to maxWorkers and never exceeds the size of the range, so that
// every worker of a team has at least one index to visit. An empty range
// gets a team of size 0.
func ComputeTeamSize(low, high, n, maxWorkers int) (team int) {
	switch size := high - low; {
	case size > 0:
		switch {
		case n == 0:
			team = runtime.GOMAXPROCS(0)
		case n > 0:
			team = n
		default:
			panic(fmt.Sprintf("invalid number of workers: %v", n))
		}
		if maxWorkers > 0 && team > maxWorkers {
			team = maxWorkers
		}
		if team > size {
			team = size
		}
	case size == 0:
		team = 0
	default:
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	return
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic. Error
// values stay errors and can still be matched with errors.Is.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if err, isError := p.(error); isError {
			r := fmt.Errorf("%s: %w", s, err)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}
