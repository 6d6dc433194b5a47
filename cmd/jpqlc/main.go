// Command jpqlc renders serialized expression trees as JPQL fragments.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/jpqlc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
