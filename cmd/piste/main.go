// Command piste manages fencing tournaments on a local store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/piste/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
