// Command arcsctl is a thin HTTP client for the deploy controller's single
// endpoint — enough to deploy, redeploy, delete, poll, and edit challenge
// metadata from a terminal without hand-writing curl invocations.
//
// Exit codes: 0 on success, non-zero on any request or transport failure.
package main

import (
	"fmt"
	"os"

	"github.com/bcactf/arcs-deploy-controller/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
