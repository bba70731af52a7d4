package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/pkg/monitor"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive sync dashboard",
	Long: `Interactive sync dashboard.

Runs the sync engine and connectivity monitor in-process and shows the queue,
engine timing, and live event stream in a terminal UI.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newService()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer s.close()

		s.monitor.Start()
		s.engine.Start()
		defer func() {
			s.engine.Stop()
			s.monitor.Stop()
			s.rc.Stop()
		}()

		m := monitor.New(s.queue, s.engine, s.bridge, version)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			output.Error("%v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
