package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/recovery"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Manually run a connectivity recovery cycle",
	Long: `Manually run a connectivity recovery cycle.

Re-probes the CRM server and, if it is still unreachable, walks the remedial
actions (reset connections, reload credentials) one by one. Works even after
automatic recovery has exhausted its attempts.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newService()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer s.close()

		output.Info("Probing %s ...", s.client.BaseURL)
		state := s.rc.TriggerManual()

		switch state {
		case recovery.StateRecovered:
			output.Success("Connectivity recovered")
			if res, err := s.drain(); err == nil && res.Synced > 0 {
				output.Success("Synced %d pending lead(s)", res.Synced)
			}
			return nil
		case recovery.StateExhausted:
			output.Error("recovery exhausted after %d attempt(s)", s.rc.Attempts())
			return fmt.Errorf("recovery exhausted")
		default:
			output.Warning("Server still unreachable (attempt %d)", s.rc.Attempts())
			return fmt.Errorf("server unreachable")
		}
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
