package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/output"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Drain pending leads to the CRM now",
	Long: `Drain pending leads to the CRM now.

Runs guarded sync ticks until the pending queue is empty or no further
progress is possible (offline, or every remaining record is failing).`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		s, err := newService()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer s.close()

		if !s.monitor.ProbeOnce() {
			err := fmt.Errorf("CRM server unreachable")
			if jsonOut {
				output.JSONError(output.ErrCodeOffline, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		res, err := s.drain()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(res)
		}
		if res.Processed == 0 {
			output.Info("Nothing to sync")
			return nil
		}
		output.Success("Synced %d of %d lead(s)", res.Synced, res.Processed)
		if res.Failed > 0 {
			output.Warning("%d lead(s) failed transiently and remain pending", res.Failed)
		}
		if res.Permanent > 0 {
			output.Warning("%d lead(s) were rejected permanently", res.Permanent)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("json", false, "Output JSON")
	rootCmd.AddCommand(syncCmd)
}
