package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show queue counts by sync status",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		stats, err := q.Stats()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(stats)
		}

		fmt.Print(output.SectionHeader("queue"))
		output.Info("  Location:          %s", q.BaseDir())
		output.Info("  Pending:           %d", stats.Pending)
		output.Info("  Syncing:           %d", stats.Syncing)
		output.Info("  Synced:            %d", stats.Synced)
		output.Info("  Failed permanent:  %d", stats.FailedPermanent)
		output.Info("  Total:             %d", stats.Total())
		fmt.Print(output.SectionHeader("sync"))
		output.Info("  Server:     %s", leadconfig.GetServerURL())
		output.Info("  Enabled:    %t", leadconfig.GetSyncEnabled())
		output.Info("  Batch size: %d", leadconfig.GetBatchSize())
		output.Info("  Retention:  %s", leadconfig.GetRetention())
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Output JSON")
	rootCmd.AddCommand(statsCmd)
}
