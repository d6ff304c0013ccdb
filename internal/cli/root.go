// Package cli implements the forall command line tool.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/exascience/forall/config"
	"github.com/exascience/forall/dispatch"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool

	engine *dispatch.Engine
}

// Engine returns the engine configured by the global flags. It is only
// valid once the root command's pre-run has completed.
func (o *RootOptions) Engine() *dispatch.Engine { return o.engine }

// NewRootCommand creates the root command of the forall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "forall",
		Short: "forall - policy-driven parallel loops",
		Long: `Run loops under serial, static, dynamic, guided, auto, runtime and nested
team policies, over ranges, strided ranges, indirection lists and segmented
spaces, and check that reductions do not depend on how the work is divided.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.Debug {
				cfg.Debug = true
			}
			opts.engine, err = dispatch.New(cfg)
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log debug records to stderr")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTableCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}
