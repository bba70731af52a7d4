package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/leadvault/internal/models"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <local-id>",
	Short:   "Show one lead record in full",
	GroupID: "capture",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		rec, err := findByPrefix(q, args[0])
		if err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeNotFound, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOut {
			return output.JSON(rec)
		}
		fmt.Println(output.FormatLeadLong(rec))
		return nil
	},
}

// findByPrefix resolves a full or shortened local id to a single record.
func findByPrefix(q *queue.Queue, id string) (*models.LeadRecord, error) {
	if rec, err := q.Get(id); err != nil {
		return nil, err
	} else if rec != nil {
		return rec, nil
	}
	matches, err := q.List(func(r *models.LeadRecord) bool {
		return strings.HasPrefix(r.LocalID, id)
	})
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("record not found: %s", id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous id prefix %s (%d matches)", id, len(matches))
	}
}

func init() {
	showCmd.Flags().Bool("json", false, "Output JSON")
	rootCmd.AddCommand(showCmd)
}
