// Package connectivity tracks whether the remote store is reachable. It
// combines externally reported online/offline signals with a cheap periodic
// probe, because environment signals alone produce false-positive "online"
// states (captive portals, half-open tunnels).
package connectivity

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultProbeInterval is how often the reachability probe runs.
const DefaultProbeInterval = 30 * time.Second

// DefaultFailThreshold is how many consecutive probe failures engage the
// recovery controller.
const DefaultFailThreshold = 3

// Monitor maintains the online flag and drives transition callbacks.
type Monitor struct {
	probe         func() error
	interval      time.Duration
	failThreshold int

	// OnOnline fires on an offline -> online transition (out-of-cycle drain).
	OnOnline func()
	// OnDegraded fires on every failed probe once failThreshold consecutive
	// failures have accumulated, so the recovery controller keeps cycling
	// toward exhaustion during a persistent outage.
	OnDegraded func()

	mu          sync.Mutex
	online      bool
	consecFails int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a monitor around the given probe. The probe must be a
// minimal read with no side effects. The monitor starts offline; the first
// successful probe or an explicit SetOnline flips it.
func NewMonitor(probe func() error, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Monitor{
		probe:         probe,
		interval:      interval,
		failThreshold: DefaultFailThreshold,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// IsOnline reports the current connectivity belief.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records an environment-reported transition (OS network change,
// resume from sleep). An offline -> online transition fires OnOnline.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	if online {
		m.consecFails = 0
	}
	m.mu.Unlock()

	if online && !was {
		slog.Info("connectivity: online")
		if m.OnOnline != nil {
			m.OnOnline()
		}
	}
	if !online && was {
		slog.Info("connectivity: offline")
	}
}

// Start launches the periodic probe loop. An immediate probe runs first so
// the daemon does not wait a full interval to learn its state.
func (m *Monitor) Start() {
	go func() {
		defer close(m.done)
		m.ProbeOnce()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.ProbeOnce()
			}
		}
	}()
}

// Stop halts the probe loop. Idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// ProbeOnce runs a single reachability check and applies the transition
// rules. Exposed for the recovery controller, which re-probes after each
// remedial action.
func (m *Monitor) ProbeOnce() bool {
	err := m.probe()

	m.mu.Lock()
	was := m.online
	if err == nil {
		m.online = true
		m.consecFails = 0
	} else {
		m.online = false
		m.consecFails++
	}
	fails := m.consecFails
	now := m.online
	m.mu.Unlock()

	if err != nil {
		slog.Debug("connectivity: probe failed", "fails", fails, "err", err)
		if was {
			slog.Info("connectivity: offline")
		}
		if fails >= m.failThreshold && m.OnDegraded != nil {
			m.OnDegraded()
		}
		return false
	}

	if !was && now {
		slog.Info("connectivity: online")
		if m.OnOnline != nil {
			m.OnOnline()
		}
	}
	return true
}
