package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
)

// ParseSpace parses an iteration space:
//
//	range:begin,end
//	strided:begin,end,stride
//	indirection:i,j,k,...
//	hybrid
//
// hybrid is the segmented space [0,10) + [10,15) + {20,21,22}, whose first
// segment runs with the segment policy p, the second serially, and the
// third with dynamic scheduling.
func ParseSpace(s string, p policy.Policy) (iterspace.Space, error) {
	kind, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	if kind == "hybrid" {
		return new(iterspace.Segmented).
			Push(iterspace.MustRange(0, 10), p).
			Push(iterspace.MustRange(10, 15), policy.SerialPolicy()).
			Push(iterspace.NewIndirection(20, 21, 22), policy.DynamicPolicy(1)), nil
	}
	var ints []int
	if args != "" {
		for _, f := range strings.Split(args, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("invalid space %q: %w", s, err)
			}
			ints = append(ints, i)
		}
	}
	switch {
	case kind == "range" && len(ints) == 2:
		return iterspace.NewRange(ints[0], ints[1])
	case kind == "strided" && len(ints) == 3:
		return iterspace.NewStrided(ints[0], ints[1], ints[2])
	case kind == "indirection":
		return iterspace.NewIndirection(ints...), nil
	default:
		return nil, fmt.Errorf("invalid space %q", s)
	}
}
