package cmd

import (
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the lead queue in the current directory",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		q, err := queue.Initialize(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		output.Success("Initialized lead queue in %s/.leadvault", baseDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
