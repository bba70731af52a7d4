package monitor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/leadvault/internal/models"
	"github.com/marcus/leadvault/internal/notify"
	"github.com/marcus/leadvault/internal/queue"
)

// refreshInterval is how often the dashboard re-reads the queue.
const refreshInterval = 2 * time.Second

// maxEventLog caps the retained bridge event history.
const maxEventLog = 50

// refreshMsg carries a fresh queue snapshot into the model.
type refreshMsg struct {
	records []models.LeadRecord
	stats   models.QueueStats
	err     error
}

// eventMsg wraps a bridge event delivered through the subscription channel.
type eventMsg notify.Event

// tickMsg schedules the next periodic refresh.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd reads the queue off the UI goroutine.
func refreshCmd(q *queue.Queue) tea.Cmd {
	return func() tea.Msg {
		recs, err := q.List(nil)
		if err != nil {
			return refreshMsg{err: err}
		}
		stats, err := q.Stats()
		if err != nil {
			return refreshMsg{err: err}
		}
		// Newest first for the dashboard.
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
		return refreshMsg{records: recs, stats: stats}
	}
}

// waitForEvent blocks on the bridge subscription channel.
func waitForEvent(events <-chan notify.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// eventLabel renders a bridge event kind as a styled badge.
func eventLabel(kind notify.Kind) string {
	switch kind {
	case notify.KindQueued:
		return queuedBadge.Render("QUEUED")
	case notify.KindSynced:
		return syncedBadge.Render("SYNCED")
	case notify.KindSyncFailedPermanent:
		return failedBadge.Render("FAILED")
	case notify.KindConnectivityRestored:
		return restoredBadge.Render("ONLINE")
	case notify.KindRecoveryExhausted:
		return exhaustedBadge.Render("EXHAUSTED")
	default:
		return subtleStyle.Render(string(kind))
	}
}
