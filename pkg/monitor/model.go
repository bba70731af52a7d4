package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/leadvault/internal/engine"
	"github.com/marcus/leadvault/internal/models"
	"github.com/marcus/leadvault/internal/notify"
	"github.com/marcus/leadvault/internal/output"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/marcus/leadvault/internal/version"
)

// logEntry is one line of the dashboard event log.
type logEntry struct {
	At    time.Time
	Kind  notify.Kind
	Count int
}

// Model is the Bubble Tea model for the sync dashboard.
type Model struct {
	Queue  *queue.Queue
	Engine *engine.Engine

	Width  int
	Height int

	Records []models.LeadRecord
	Stats   models.QueueStats
	Events  []logEntry

	Table       table.Model
	Spinner     spinner.Model
	LastRefresh time.Time
	Err         error

	Version      string
	UpdateNotice string

	events      chan notify.Event
	unsubscribe func()
}

// New wires a dashboard model over a running engine. The bridge subscription
// feeds the event log; events arriving faster than the UI drains them are
// dropped rather than blocking the engine.
func New(q *queue.Queue, eng *engine.Engine, bridge *notify.Bridge, ver string) Model {
	events := make(chan notify.Event, 16)
	unsub := bridge.Subscribe(notify.SubscriberFunc(func(ev notify.Event) {
		select {
		case events <- ev:
		default:
		}
	}))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	tbl := table.New(
		table.WithColumns(recordColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).Foreground(primaryColor)
	st.Selected = st.Selected.Background(selectedBg)
	tbl.SetStyles(st)

	return Model{
		Queue:       q,
		Engine:      eng,
		Table:       tbl,
		Spinner:     sp,
		Version:     ver,
		events:      events,
		unsubscribe: unsub,
	}
}

// Init starts the refresh cycle and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.Queue),
		waitForEvent(m.events),
		m.Spinner.Tick,
		tickCmd(),
		version.CheckAsync(m.Version),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetColumns(recordColumns(msg.Width))
		if h := msg.Height - 14; h > 3 {
			m.Table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.unsubscribe()
			return m, tea.Quit
		case "r":
			return m, refreshCmd(m.Queue)
		case "s":
			m.Engine.ForceSyncNow()
			return m, refreshCmd(m.Queue)
		}

	case tickMsg:
		return m, tea.Batch(refreshCmd(m.Queue), tickCmd())

	case refreshMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.Records = msg.records
		m.Stats = msg.stats
		m.LastRefresh = time.Now()
		m.Table.SetRows(recordRows(msg.records))
		return m, nil

	case eventMsg:
		m.Events = append(m.Events, logEntry{At: msg.At, Kind: msg.Kind, Count: msg.Count})
		if len(m.Events) > maxEventLog {
			m.Events = m.Events[len(m.Events)-maxEventLog:]
		}
		// An event means state changed; refresh immediately.
		return m, tea.Batch(refreshCmd(m.Queue), waitForEvent(m.events))

	case version.UpdateAvailableMsg:
		m.UpdateNotice = "update available: " + msg.LatestVersion
		if msg.UpdateCommand != "" {
			m.UpdateNotice += "  (" + msg.UpdateCommand + ")"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// recordColumns sizes the table columns for the given terminal width.
func recordColumns(width int) []table.Column {
	emailW := width - 52
	if emailW < 20 {
		emailW = 20
	}
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Email", Width: emailW},
		{Title: "Tenant", Width: 12},
		{Title: "Status", Width: 16},
		{Title: "Captured", Width: 10},
	}
}

func recordRows(recs []models.LeadRecord) []table.Row {
	rows := make([]table.Row, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		tenant := r.TenantID
		if tenant == "" {
			tenant = "-"
		}
		rows = append(rows, table.Row{
			output.ShortID(r.LocalID),
			r.Payload.Email,
			tenant,
			string(r.SyncStatus),
			output.FormatTimeAgo(r.CapturedAt),
		})
	}
	return rows
}
