// Package cmd implements arcsctl's cobra command tree: a thin HTTP
// client over the deploy controller's single dispatch endpoint.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	authToken  string
)

var rootCmd = &cobra.Command{
	Use:   "arcsctl",
	Short: "arcsctl — talk to the ARCS challenge deploy controller",
	Long: `arcsctl sends deploy/redeploy/delete/poll/modify-meta requests to a
running deploy controller over its single authenticated HTTP endpoint.

Examples:
  arcsctl deploy --chall pwn-101 --poll-id <uuid>
  arcsctl poll --poll-id <uuid>
  arcsctl delete --chall pwn-101 --poll-id <uuid>
  arcsctl modify --chall pwn-101 --poll-id <uuid> --points 250`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", os.Getenv("ARCSCTL_SERVER"), "deploy controller base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("ARCSCTL_TOKEN"), "deploy controller bearer token")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("arcsctl: %w", err)
	}
	return nil
}
