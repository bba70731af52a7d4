package cmd

import (
	"errors"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/models"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/marcus/leadvault/internal/tenant"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:     "capture <email>",
	Aliases: []string{"add"},
	Short:   "Capture a lead into the durable queue",
	Long: `Capture a lead into the durable local queue.

The capture succeeds as soon as the record is persisted locally; it never
waits on the network. A background or follow-up sync pushes it to the CRM.`,
	GroupID: "capture",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		name, _ := cmd.Flags().GetString("name")
		company, _ := cmd.Flags().GetString("company")
		phone, _ := cmd.Flags().GetString("phone")
		source, _ := cmd.Flags().GetString("source")
		noPush, _ := cmd.Flags().GetBool("no-push")

		payload := models.LeadPayload{
			Email:   args[0],
			Name:    name,
			Company: company,
			Phone:   phone,
			Source:  source,
		}
		if err := payload.Validate(); err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeInvalidInput, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		q, err := queue.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// Capture-time tenant is best-effort; an unresolved tenant is not an
		// error here, the engine re-resolves at sync time.
		tenantID := ""
		if identity, rerr := tenant.NewResolver().Resolve(leadconfig.TenantSnapshot()); rerr == nil {
			tenantID = identity.TenantID
		}

		rec, err := q.Append(payload, tenantID)
		if err != nil {
			q.Close()
			if jsonOut {
				var serr *queue.StorageError
				code := output.ErrCodeInvalidInput
				if errors.As(err, &serr) {
					code = output.ErrCodeStorage
				}
				output.JSONError(code, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}
		// Release the write lock path before postCapture opens its own queue.
		q.Close()

		if jsonOut {
			if err := output.JSON(rec); err != nil {
				return err
			}
		} else {
			output.Success("Captured %s (%s)", rec.Payload.Email, output.ShortID(rec.LocalID))
			if tenantID == "" {
				output.Warning("no tenant resolved; record queued unassigned")
			}
		}

		postCapture(!noPush)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringP("name", "n", "", "Lead contact name")
	captureCmd.Flags().StringP("company", "c", "", "Lead company")
	captureCmd.Flags().StringP("phone", "p", "", "Lead phone number")
	captureCmd.Flags().StringP("source", "s", "", "Capture source (form, import, manual)")
	captureCmd.Flags().Bool("no-push", false, "Skip the immediate sync attempt")
	captureCmd.Flags().Bool("json", false, "Output JSON")
	rootCmd.AddCommand(captureCmd)
}
