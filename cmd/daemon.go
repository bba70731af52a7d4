package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/output"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync engine",
	Long: `Run the background sync engine.

Starts the connectivity monitor and the adaptive sync loop, and keeps them
running until interrupted. Synced records older than the retention window
are compacted periodically.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		if !leadconfig.GetSyncEnabled() {
			output.Warning("sync is disabled (LEADVAULT_SYNC=0 or config); nothing to do")
			return nil
		}

		s, err := newService()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer s.close()

		s.monitor.Start()
		s.engine.Start()
		output.Info("leadvault daemon running (probe every %s)", leadconfig.GetProbeInterval())

		compactTicker := time.NewTicker(time.Hour)
		defer compactTicker.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-compactTicker.C:
				if n, err := s.queue.Compact(leadconfig.GetRetention()); err != nil {
					slog.Warn("daemon: compact failed", "err", err)
				} else if n > 0 {
					slog.Info("daemon: compacted synced records", "removed", n)
				}
			case sig := <-sigCh:
				slog.Info("daemon: shutting down", "signal", sig.String())
				// Engine first so no tick runs against a stopped monitor,
				// then the probe loop, then any in-flight recovery settle.
				s.engine.Stop()
				s.monitor.Stop()
				s.rc.Stop()
				output.Info("leadvault daemon stopped")
				return nil
			}
		}
	},
}

func init() {
	daemonCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(daemonCmd)
}
