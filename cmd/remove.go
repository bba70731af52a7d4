package cmd

import (
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <local-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a lead record from the queue",
	Long: `Remove a lead record from the local queue.

Removal is the only mutation allowed on a synced record; pending and failed
records may be removed to abandon them before they reach the CRM.`,
	GroupID: "capture",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		rec, err := findByPrefix(q, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if err := q.Remove(rec.LocalID); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Removed %s (%s)", rec.Payload.Email, output.ShortID(rec.LocalID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
