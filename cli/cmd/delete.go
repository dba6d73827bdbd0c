package cmd

import "github.com/spf13/cobra"

var (
	deleteChall  string
	deletePollID string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Tear down one challenge's deployed resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(dispatchBody{Type: "DELETE", DeployIdentifier: deletePollID, ChallName: deleteChall})
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteChall, "chall", "", "challenge name")
	deleteCmd.Flags().StringVar(&deletePollID, "poll-id", "", "polling id (uuid)")
	_ = deleteCmd.MarkFlagRequired("chall")
	_ = deleteCmd.MarkFlagRequired("poll-id")
	rootCmd.AddCommand(deleteCmd)
}
