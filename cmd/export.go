package cmd

import (
	"os"

	"github.com/marcus/leadvault/internal/export"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/spf13/cobra"
)

var exportStatus statusFlag

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export lead records as CSV or JSON",
	GroupID: "capture",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatStr, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("output")

		format, err := export.ParseFormat(formatStr)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer q.Close()

		recs, err := q.List(exportStatus.pred())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		w := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			defer f.Close()
			w = f
		}

		if err := export.Write(w, recs, format); err != nil {
			output.Error("%v", err)
			return err
		}
		if outPath != "" {
			output.Success("Exported %d record(s) to %s", len(recs), outPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Export format (csv, json)")
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().Var(&exportStatus, "status", "Filter by status")
	rootCmd.AddCommand(exportCmd)
}
