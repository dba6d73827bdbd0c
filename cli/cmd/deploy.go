package cmd

import "github.com/spf13/cobra"

var (
	deployChall  string
	deployPollID string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Start a deployment for one challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(dispatchBody{Type: "DEPLOY", DeployIdentifier: deployPollID, ChallName: deployChall})
	},
}

var redeployCmd = &cobra.Command{
	Use:   "redeploy",
	Short: "Tear down and redeploy one challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(dispatchBody{Type: "REDEPLOY", DeployIdentifier: deployPollID, ChallName: deployChall})
	},
}

func init() {
	for _, c := range []*cobra.Command{deployCmd, redeployCmd} {
		c.Flags().StringVar(&deployChall, "chall", "", "challenge name")
		c.Flags().StringVar(&deployPollID, "poll-id", "", "client-chosen polling id (uuid)")
		_ = c.MarkFlagRequired("chall")
		_ = c.MarkFlagRequired("poll-id")
		rootCmd.AddCommand(c)
	}
}
