package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/exascience/forall"
	"github.com/exascience/forall/dispatch"
	"github.com/exascience/forall/iterspace"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/reduce"
	"github.com/exascience/forall/resources"
)

// VerifyOptions holds the flags of the verify command.
type VerifyOptions struct {
	Teams []int
}

// A check verifies one property on a resource.
type check struct {
	name string
	run  func(e *dispatch.Engine, res resources.Resource) error
}

var verifyPolicies = []policy.Policy{
	policy.SerialPolicy(),
	policy.AutoPolicy(),
	policy.StaticPolicy(0),
	policy.StaticPolicy(37),
	policy.DynamicPolicy(16),
	policy.GuidedPolicy(8),
	policy.RuntimePolicy(),
	policy.StaticPolicy(0).NoWait(),
	policy.NestedTeamPolicy(policy.GuidedPolicy(0)),
}

func forallWait(e *dispatch.Engine, res resources.Resource, p policy.Policy, s iterspace.Space, body forall.Body, params ...reduce.Param) error {
	ev, err := e.Forall(res, p, s, body, params...)
	if err != nil {
		return err
	}
	ev.Wait()
	return nil
}

var checks = []check{
	{"range covered exactly once", func(e *dispatch.Engine, res resources.Resource) error {
		for _, p := range verifyPolicies {
			visits := make([]atomic.Int32, 1000)
			if err := forallWait(e, res, p, iterspace.MustRange(0, 1000), func(_ forall.Worker, i int) {
				visits[i].Add(1)
			}); err != nil {
				return err
			}
			for i := range visits {
				if n := visits[i].Load(); n != 1 {
					return fmt.Errorf("%v: index %v visited %v times", p, i, n)
				}
			}
		}
		return nil
	}},
	{"sum over range", func(e *dispatch.Engine, res resources.Resource) error {
		for _, p := range verifyPolicies {
			sum := reduce.NewSum[int]()
			if err := forallWait(e, res, p, iterspace.MustRange(0, 1000), func(w forall.Worker, _ int) {
				sum.Add(w, 1)
			}, sum); err != nil {
				return err
			}
			if got := sum.Get(); got != 1000 {
				return fmt.Errorf("%v: sum %v, want 1000", p, got)
			}
		}
		return nil
	}},
	{"strided visits", func(e *dispatch.Engine, res resources.Resource) error {
		count := reduce.NewSum[int]()
		if err := forallWait(e, res, policy.GuidedPolicy(0), iterspace.MustStrided(0, 100, 5), func(w forall.Worker, _ int) {
			count.Add(w, 1)
		}, count); err != nil {
			return err
		}
		if got := count.Get(); got != 20 {
			return fmt.Errorf("strided count %v, want 20", got)
		}
		return nil
	}},
	{"minloc over indirection", func(e *dispatch.Engine, res resources.Resource) error {
		values := []int{7, 3, 9, 3, 1, 5}
		minloc := reduce.NewMinLoc[int]()
		if err := forallWait(e, res, policy.DynamicPolicy(1), iterspace.NewIndirection(0, 1, 2, 3, 4, 5), func(w forall.Worker, i int) {
			minloc.Combine(w, i, values[i])
		}, minloc); err != nil {
			return err
		}
		if v, loc := minloc.Get(); v != 1 || loc != 4 {
			return fmt.Errorf("minloc (%v, %v), want (1, 4)", v, loc)
		}
		return nil
	}},
	{"segmented sum", func(e *dispatch.Engine, res resources.Resource) error {
		for _, outer := range []policy.Policy{policy.SerialPolicy(), policy.AutoPolicy()} {
			s, _ := ParseSpace("hybrid", policy.StaticPolicy(0))
			sum := reduce.NewSum[int]()
			if err := forallWait(e, res, outer, s, func(w forall.Worker, _ int) {
				sum.Add(w, 1)
			}, sum); err != nil {
				return err
			}
			if got := sum.Get(); got != 18 {
				return fmt.Errorf("%v: segmented sum %v, want 18", outer, got)
			}
		}
		return nil
	}},
	{"empty range", func(e *dispatch.Engine, res resources.Resource) error {
		sum := reduce.NewSum[int]()
		var calls atomic.Int32
		if err := forallWait(e, res, policy.AutoPolicy(), iterspace.MustRange(5, 5), func(forall.Worker, int) {
			calls.Add(1)
		}, sum); err != nil {
			return err
		}
		if calls.Load() != 0 || sum.Get() != 0 {
			return fmt.Errorf("empty range: %v calls, sum %v", calls.Load(), sum.Get())
		}
		return nil
	}},
	{"nowait equals barrier", func(e *dispatch.Engine, res resources.Resource) error {
		barrier, nowait := reduce.NewSum[int](), reduce.NewSum[int]()
		s := iterspace.MustRange(0, 1000)
		if err := forallWait(e, res, policy.StaticPolicy(0), s, func(w forall.Worker, i int) { barrier.Add(w, i) }, barrier); err != nil {
			return err
		}
		if err := forallWait(e, res, policy.StaticPolicy(0).NoWait(), s, func(w forall.Worker, i int) { nowait.Add(w, i) }, nowait); err != nil {
			return err
		}
		if barrier.Get() != nowait.Get() {
			return fmt.Errorf("nowait sum %v, barrier sum %v", nowait.Get(), barrier.Get())
		}
		return nil
	}},
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check loop and reduction properties for several team sizes",
		Long: `Check that every index is visited exactly once and that reductions give
the same result whatever the policy, for every team size, concurrently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), rootOpts.Engine(), opts.Teams, cmd)
		},
	}

	cmd.Flags().IntSliceVarP(&opts.Teams, "teams", "t", []int{1, 2, 4, 8}, "team sizes to verify")

	return cmd
}

func runVerify(ctx context.Context, e *dispatch.Engine, teams []int, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]error, len(teams))
	g, ctx := errgroup.WithContext(ctx)
	for i, team := range teams {
		g.Go(func() error {
			if team <= 0 {
				return fmt.Errorf("invalid team size %v", team)
			}
			res := e.Host()
			res.Workers = team
			for _, c := range checks {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := c.run(e, res); err != nil {
					results[i] = fmt.Errorf("%v: %w", c.name, err)
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed int
	for i, team := range teams {
		if results[i] != nil {
			failed++
			fmt.Fprintf(out, "team %v: FAIL %v\n", team, results[i])
		} else {
			fmt.Fprintf(out, "team %v: ok (%v checks)\n", team, len(checks))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%v of %v team sizes failed", failed, len(teams))
	}
	return nil
}
