package cmd

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/marcus/leadvault/internal/connectivity"
	"github.com/marcus/leadvault/internal/engine"
	"github.com/marcus/leadvault/internal/leadconfig"
	"github.com/marcus/leadvault/internal/notify"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/marcus/leadvault/internal/recovery"
	"github.com/marcus/leadvault/internal/remote"
	"github.com/marcus/leadvault/internal/tenant"
	"github.com/marcus/leadvault/internal/webhook"
)

// service bundles the wired subsystems a command needs. Commands construct
// it explicitly and close it when done; there is no ambient singleton.
type service struct {
	queue   *queue.Queue
	client  *remote.Client
	bridge  *notify.Bridge
	monitor *connectivity.Monitor
	engine  *engine.Engine
	rc      *recovery.Controller
}

// newService opens the queue and wires client, bridge, monitor, engine, and
// recovery controller together. Nothing starts running until the caller
// starts the monitor/engine.
func newService() (*service, error) {
	q, err := queue.Open(getBaseDir())
	if err != nil {
		return nil, err
	}

	// Records claimed by a process that died mid-sync would otherwise sit in
	// syncing forever; put them back in the pending pool before anything ticks.
	if n, err := q.RequeueStale(); err != nil {
		slog.Warn("requeue interrupted records", "err", err)
	} else if n > 0 {
		slog.Info("requeued interrupted records", "count", n)
	}

	deviceID, err := leadconfig.GetDeviceID()
	if err != nil {
		q.Close()
		return nil, err
	}
	client := remote.New(leadconfig.GetServerURL(), leadconfig.GetAPIKey(), deviceID)

	bridge := notify.NewBridge()
	if url, secret := leadconfig.GetWebhook(); url != "" {
		bridge.Subscribe(webhook.NewDispatcher(url, secret, deviceID))
	}

	mon := connectivity.NewMonitor(client.Ping, leadconfig.GetProbeInterval())

	cfg := engine.DefaultConfig()
	cfg.BatchSize = leadconfig.GetBatchSize()
	eng := engine.New(q, client, tenant.NewResolver(), leadconfig.TenantSnapshot, mon.IsOnline, bridge, cfg)

	rc := recovery.NewController(mon.ProbeOnce, recoveryActions(client))

	mon.OnOnline = func() {
		// Connectivity returned on its own; the next outage gets a full
		// remediation budget.
		rc.Reset()
		bridge.Emit(notify.KindConnectivityRestored, 0)
		eng.ForceSyncNow()
	}
	mon.OnDegraded = func() {
		go rc.Trigger()
	}
	rc.OnRecovered = func() {
		eng.ForceSyncNow()
	}
	rc.OnExhausted = func() {
		bridge.Emit(notify.KindRecoveryExhausted, 0)
	}

	return &service{queue: q, client: client, bridge: bridge, monitor: mon, engine: eng, rc: rc}, nil
}

// close releases the queue. Started subsystems must be stopped first.
func (s *service) close() {
	s.queue.Close()
}

// recoveryActions is the ordered remediation list: drop idle connections,
// rebuild the transport entirely, then reload credentials from disk in case
// a rotated key is what the server is rejecting.
func recoveryActions(client *remote.Client) []recovery.Action {
	return []recovery.Action{
		{Name: "close_idle_connections", Run: func() error {
			client.HTTP.CloseIdleConnections()
			return nil
		}},
		{Name: "reset_transport", Run: func() error {
			client.HTTP = &http.Client{Timeout: client.HTTP.Timeout}
			return nil
		}},
		{Name: "reload_credentials", Run: func() error {
			client.APIKey = leadconfig.GetAPIKey()
			return nil
		}},
	}
}

// drain runs guarded ticks until the pending queue is empty or a tick makes
// no progress. Used by one-shot commands; the daemon relies on the timer.
func (s *service) drain() (*engine.TickResult, error) {
	total := &engine.TickResult{}
	for {
		res, err := s.engine.TickNow()
		if err != nil {
			return total, err
		}
		total.Processed += res.Processed
		total.Synced += res.Synced
		total.Failed += res.Failed
		total.Permanent += res.Permanent
		if res.Skipped || res.Empty || res.Synced == 0 {
			total.Skipped = res.Skipped
			total.Empty = res.Empty
			return total, nil
		}
	}
}

// postCapture runs the shared after-capture path: emit the queued event on
// the wired bridge, wake the engine, and optionally attempt a short-timeout
// drain. Errors are logged, never surfaced: the capture already succeeded
// locally.
func postCapture(push bool) {
	s, err := newService()
	if err != nil {
		slog.Debug("post capture: open service", "err", err)
		return
	}
	defer s.close()

	s.engine.NotifyAppend()
	if !push || !leadconfig.GetSyncEnabled() {
		return
	}
	s.client.HTTP.Timeout = 5 * time.Second
	if !s.monitor.ProbeOnce() {
		return
	}
	if _, err := s.drain(); err != nil {
		slog.Debug("post capture: drain", "err", err)
	}
}
