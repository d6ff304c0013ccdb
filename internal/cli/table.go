package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/exascience/forall/dispatch"
)

// NewTableCommand creates the table command.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the dispatch table",
		Long:  "Print every registered pair of policy kind, barrier and space kind, with its handler.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTable(cmd.OutOrStdout())
		},
	}
}

func writeTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tNOWAIT\tSPACE\tHANDLER")
	for _, e := range dispatch.Table() {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%v\n", e.Policy, e.NoWait, e.Space, e.Handler)
	}
	fmt.Fprintf(tw, "\nnested inner policies: %v\n", dispatch.NestedInner())
	return tw.Flush()
}
