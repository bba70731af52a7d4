package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show or change leadvault settings",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		cfg, err := leadconfig.LoadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOut {
			return output.JSON(cfg)
		}
		output.Info("sync.url          %s", orUnset(cfg.Sync.URL))
		output.Info("sync.enabled      %t", leadconfig.GetSyncEnabled())
		output.Info("sync.batch_size   %d", leadconfig.GetBatchSize())
		output.Info("queue.retention   %s", leadconfig.GetRetention())
		output.Info("webhook.url       %s", orUnset(cfg.Webhook.URL))
		output.Info("tenant.selected   %s", orUnset(cfg.Tenant.Selected))
		output.Info("tenant.fallback   %s", orUnset(cfg.Tenant.Fallback))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg, err := leadconfig.LoadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		switch key {
		case "sync.url":
			cfg.Sync.URL = value
		case "sync.enabled":
			b, err := strconv.ParseBool(value)
			if err != nil {
				output.Error("sync.enabled must be true or false")
				return err
			}
			cfg.Sync.Enabled = &b
		case "sync.batch_size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				output.Error("sync.batch_size must be a positive integer")
				return fmt.Errorf("invalid batch size %q", value)
			}
			cfg.Sync.BatchSize = &n
		case "sync.probe_interval":
			if _, err := time.ParseDuration(value); err != nil {
				output.Error("sync.probe_interval must be a duration (e.g. 30s)")
				return err
			}
			cfg.Sync.ProbeInterval = value
		case "queue.retention":
			if _, err := time.ParseDuration(value); err != nil {
				output.Error("queue.retention must be a duration (e.g. 24h)")
				return err
			}
			cfg.Queue.Retention = value
		case "webhook.url":
			cfg.Webhook.URL = value
		case "webhook.secret":
			cfg.Webhook.Secret = value
		case "tenant.selected":
			cfg.Tenant.Selected = value
		case "tenant.fallback":
			cfg.Tenant.Fallback = value
		default:
			err := fmt.Errorf("unknown config key %q", key)
			output.Error("%v", err)
			return err
		}

		if err := leadconfig.SaveConfig(cfg); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Set %s", key)
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	configCmd.Flags().Bool("json", false, "Output JSON")
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
