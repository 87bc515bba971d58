// Command grts is a command-line interface for the GRTS spatial sampler.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/grts/inmaputil"
)

func main() {
	cmds := inmaputil.NewRootCmd()
	if err := cmds.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
