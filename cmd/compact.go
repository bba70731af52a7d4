package cmd

import (
	"time"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:     "compact",
	Short:   "Drop synced records older than the retention window",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		retentionStr, _ := cmd.Flags().GetString("retention")

		retention := leadconfig.GetRetention()
		if retentionStr != "" {
			d, err := time.ParseDuration(retentionStr)
			if err != nil {
				output.Error("invalid retention: %v", err)
				return err
			}
			retention = d
		}

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		removed, err := q.Compact(retention)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if removed == 0 {
			output.Info("Nothing to compact")
			return nil
		}
		output.Success("Removed %d synced record(s) older than %s", removed, retention)
		return nil
	},
}

func init() {
	compactCmd.Flags().String("retention", "", "Override the retention window (e.g. 48h)")
	rootCmd.AddCommand(compactCmd)
}
