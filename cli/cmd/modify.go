package cmd

import "github.com/spf13/cobra"

var (
	modifyChall  string
	modifyPollID string
	modifyName   string
	modifyDesc   string
	modifyPoints uint64
)

var modifyCmd = &cobra.Command{
	Use:   "modify",
	Short: "Edit a challenge's chall.yaml and push the change",
	RunE: func(cmd *cobra.Command, args []string) error {
		mods := map[string]interface{}{}
		if cmd.Flags().Changed("name") {
			mods["name"] = modifyName
		}
		if cmd.Flags().Changed("desc") {
			mods["desc"] = modifyDesc
		}
		if cmd.Flags().Changed("points") {
			mods["points"] = modifyPoints
		}
		return send(dispatchBody{Type: "MODIFY_META", DeployIdentifier: modifyPollID, ChallName: modifyChall, Modifications: mods})
	},
}

func init() {
	modifyCmd.Flags().StringVar(&modifyChall, "chall", "", "challenge name")
	modifyCmd.Flags().StringVar(&modifyPollID, "poll-id", "", "polling id (uuid)")
	modifyCmd.Flags().StringVar(&modifyName, "name", "", "new challenge name")
	modifyCmd.Flags().StringVar(&modifyDesc, "desc", "", "new challenge description")
	modifyCmd.Flags().Uint64Var(&modifyPoints, "points", 0, "new point value")
	_ = modifyCmd.MarkFlagRequired("chall")
	_ = modifyCmd.MarkFlagRequired("poll-id")
	rootCmd.AddCommand(modifyCmd)
}
