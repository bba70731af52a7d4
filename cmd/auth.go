package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/remote"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage CRM credentials",
	GroupID: "system",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key for the CRM server",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		serverURL, _ := cmd.Flags().GetString("url")
		tenantID, _ := cmd.Flags().GetString("tenant")

		if apiKey == "" {
			err := fmt.Errorf("--api-key is required")
			output.Error("%v", err)
			return err
		}

		creds, err := leadconfig.LoadAuth()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if creds == nil {
			creds = &leadconfig.AuthCredentials{}
		}
		if creds.DeviceID == "" {
			creds.DeviceID, err = leadconfig.GenerateDeviceID()
			if err != nil {
				output.Error("%v", err)
				return err
			}
		}
		creds.APIKey = apiKey
		if serverURL != "" {
			creds.ServerURL = serverURL
		}
		if tenantID != "" {
			creds.SessionTenant = tenantID
			creds.ProfileTenant = tenantID
		}

		// Verify before saving, when the server answers. An unreachable
		// server is not fatal: offline login keeps capture working.
		client := remote.New(firstNonEmpty(serverURL, leadconfig.GetServerURL()), apiKey, creds.DeviceID)
		if err := client.Ping(); err != nil {
			output.Warning("server not reachable (%v); credentials stored unverified", err)
		}

		if err := leadconfig.SaveAuth(creds); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Credentials stored (device %s)", creds.DeviceID[:8])
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credential state",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := leadconfig.LoadAuth()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if creds == nil || creds.APIKey == "" {
			output.Info("Not logged in")
			return nil
		}
		output.Info("Server:  %s", leadconfig.GetServerURL())
		output.Info("Device:  %s", creds.DeviceID)
		if creds.SessionTenant != "" {
			output.Info("Tenant:  %s", creds.SessionTenant)
		}
		if creds.ExpiresAt != "" {
			output.Info("Expires: %s", creds.ExpiresAt)
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := leadconfig.ClearAuth(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	authLoginCmd.Flags().String("api-key", "", "API key for the CRM server")
	authLoginCmd.Flags().String("url", "", "CRM server URL")
	authLoginCmd.Flags().String("tenant", "", "Tenant this key belongs to")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
