package cmd

import "github.com/spf13/cobra"

var pollID string

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Check the status of an in-flight or finished deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(dispatchBody{Type: "POLL", DeployIdentifier: pollID})
	},
}

func init() {
	pollCmd.Flags().StringVar(&pollID, "poll-id", "", "polling id (uuid)")
	_ = pollCmd.MarkFlagRequired("poll-id")
	rootCmd.AddCommand(pollCmd)
}
