// Command forall runs loops under execution policies and checks that their
// reductions do not depend on how the work is divided.
package main

import (
	"os"

	"github.com/exascience/forall/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
