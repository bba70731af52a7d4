package cmd

import (
	"errors"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/tenant"
	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:     "tenant",
	Short:   "Show the currently resolved tenant",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		identity, err := tenant.NewResolver().Resolve(leadconfig.TenantSnapshot())
		if err != nil {
			if errors.Is(err, tenant.ErrNoTenant) {
				if jsonOut {
					output.JSONError(output.ErrCodeNoTenant, err.Error())
				} else {
					output.Warning("no tenant resolved; captures will queue unassigned")
				}
				return err
			}
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(map[string]string{
				"tenant_id": identity.TenantID,
				"source":    string(identity.Source),
			})
		}
		output.Info("Tenant: %s (from %s)", identity.TenantID, identity.Source)
		return nil
	},
}

var tenantSelectCmd = &cobra.Command{
	Use:   "select <tenant-id>",
	Short: "Set the app-selected tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := leadconfig.LoadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		cfg.Tenant.Selected = args[0]
		if err := leadconfig.SaveConfig(cfg); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Selected tenant %s", args[0])
		return nil
	},
}

var tenantFallbackCmd = &cobra.Command{
	Use:   "fallback <tenant-id>",
	Short: "Set the last-known-good fallback tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := leadconfig.LoadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		cfg.Tenant.Fallback = args[0]
		if err := leadconfig.SaveConfig(cfg); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Fallback tenant set to %s", args[0])
		return nil
	},
}

func init() {
	tenantCmd.Flags().Bool("json", false, "Output JSON")
	tenantCmd.AddCommand(tenantSelectCmd)
	tenantCmd.AddCommand(tenantFallbackCmd)
	rootCmd.AddCommand(tenantCmd)
}
