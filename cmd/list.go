package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var listStatus statusFlag

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List captured leads",
	GroupID: "capture",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		long, _ := cmd.Flags().GetBool("long")

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		recs, err := q.List(listStatus.pred())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(recs)
		}
		if len(recs) == 0 {
			output.Info("No leads found")
			return nil
		}
		width := output.TermWidth()
		for i := range recs {
			if long {
				fmt.Println(output.FormatLeadLong(&recs[i]))
			} else {
				fmt.Println(output.FormatLeadShort(&recs[i], width))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Var(&listStatus, "status", "Filter by status (pending, syncing, synced, failed_permanent)")
	listCmd.Flags().BoolP("long", "l", false, "Show full record detail")
	listCmd.Flags().Bool("json", false, "Output JSON")
	rootCmd.AddCommand(listCmd)
}
