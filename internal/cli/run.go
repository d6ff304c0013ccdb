package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exascience/forall"
	"github.com/exascience/forall/policy"
	"github.com/exascience/forall/reduce"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	Policy        string
	Space         string
	SegmentPolicy string
	Workers       int
}

// value is the deterministic input of the run kernel at index i.
func value(i int) int { return (i*7919 + 13) % 1009 }

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a reduction kernel under a policy",
		Long: `Run a kernel that visits every index of a space under a policy, and
reduces a deterministic value per index with sum, min, max, minloc and
maxloc reduction parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := policy.Parse(opts.Policy)
			if err != nil {
				return err
			}
			sp, err := policy.Parse(opts.SegmentPolicy)
			if err != nil {
				return err
			}
			s, err := ParseSpace(opts.Space, sp)
			if err != nil {
				return err
			}
			res := rootOpts.Engine().Host()
			if opts.Workers > 0 {
				res.Workers = opts.Workers
			}

			count := reduce.NewSum[int]()
			sum := reduce.NewSum[int]()
			minimum, maximum := reduce.NewMin[int](), reduce.NewMax[int]()
			minloc, maxloc := reduce.NewMinLoc[int](), reduce.NewMaxLoc[int]()
			ev, err := rootOpts.Engine().Forall(res, p, s, func(w forall.Worker, i int) {
				v := value(i)
				count.Add(w, 1)
				sum.Add(w, v)
				minimum.Combine(w, i, v)
				maximum.Combine(w, i, v)
				minloc.Combine(w, i, v)
				maxloc.Combine(w, i, v)
			}, count, sum, minimum, maximum, minloc, maxloc)
			if err != nil {
				return err
			}
			ev.Wait()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "policy:  %v\n", p)
			fmt.Fprintf(out, "space:   %v (%v indices)\n", s.Kind(), s.Len())
			fmt.Fprintf(out, "event:   %v\n", ev.ID())
			fmt.Fprintf(out, "count:   %v\n", count.Get())
			fmt.Fprintf(out, "sum:     %v\n", sum.Get())
			fmt.Fprintf(out, "min:     %v\n", minimum.Get())
			fmt.Fprintf(out, "max:     %v\n", maximum.Get())
			v, loc := minloc.Get()
			fmt.Fprintf(out, "minloc:  %v at %v\n", v, loc)
			v, loc = maxloc.Get()
			fmt.Fprintf(out, "maxloc:  %v at %v\n", v, loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Policy, "policy", "p", "auto", "execution policy, e.g. static,37 or nested:guided,8")
	cmd.Flags().StringVarP(&opts.Space, "space", "s", "range:0,1000", "iteration space, e.g. strided:0,100,5 or hybrid")
	cmd.Flags().StringVar(&opts.SegmentPolicy, "segment-policy", "static", "policy of the first segment of the hybrid space")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "team size, 0 for the configured default")

	return cmd
}
