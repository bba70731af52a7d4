package connectivity

import (
	"errors"
	"testing"
	"time"

	"github.com/marcus/leadvault/internal/recovery"
)

// flipProbe fails until flipped.
type flipProbe struct {
	ok bool
}

func (p *flipProbe) probe() error {
	if p.ok {
		return nil
	}
	return errors.New("unreachable")
}

func TestProbeOnceTransitions(t *testing.T) {
	p := &flipProbe{}
	m := NewMonitor(p.probe, time.Minute)

	onlineFired := 0
	m.OnOnline = func() { onlineFired++ }

	if m.IsOnline() {
		t.Fatal("monitor must start offline")
	}
	if m.ProbeOnce() {
		t.Fatal("probe should have failed")
	}
	if m.IsOnline() {
		t.Error("failed probe left monitor online")
	}

	p.ok = true
	if !m.ProbeOnce() {
		t.Fatal("probe should have succeeded")
	}
	if !m.IsOnline() {
		t.Error("successful probe left monitor offline")
	}
	if onlineFired != 1 {
		t.Errorf("OnOnline fired %d times, want 1", onlineFired)
	}

	// Staying online does not re-fire the callback.
	m.ProbeOnce()
	if onlineFired != 1 {
		t.Errorf("OnOnline fired %d times after steady state, want 1", onlineFired)
	}
}

func TestDegradedFiresAtAndPastThreshold(t *testing.T) {
	p := &flipProbe{}
	m := NewMonitor(p.probe, time.Minute)

	degraded := 0
	m.OnDegraded = func() { degraded++ }

	for i := 0; i < DefaultFailThreshold-1; i++ {
		m.ProbeOnce()
	}
	if degraded != 0 {
		t.Fatalf("OnDegraded fired %d times below the threshold, want 0", degraded)
	}
	m.ProbeOnce()
	if degraded != 1 {
		t.Fatalf("OnDegraded fired %d times at the threshold, want 1", degraded)
	}

	// While the outage persists, every further failed probe re-fires so the
	// recovery controller keeps cycling toward exhaustion.
	m.ProbeOnce()
	m.ProbeOnce()
	if degraded != 3 {
		t.Errorf("OnDegraded fired %d times during the outage, want 3", degraded)
	}

	// A successful probe resets the streak; the next outage starts over.
	p.ok = true
	m.ProbeOnce()
	p.ok = false
	for i := 0; i < DefaultFailThreshold-1; i++ {
		m.ProbeOnce()
	}
	if degraded != 3 {
		t.Errorf("OnDegraded fired %d times on a fresh short streak, want still 3", degraded)
	}
	m.ProbeOnce()
	if degraded != 4 {
		t.Errorf("OnDegraded fired %d times after the new streak hit the threshold, want 4", degraded)
	}
}

func TestPersistentOutageExhaustsRecovery(t *testing.T) {
	p := &flipProbe{}
	m := NewMonitor(p.probe, time.Minute)

	rc := recovery.NewController(func() bool { return m.ProbeOnce() }, nil)
	rc.SetSettleDelay(0)
	m.OnDegraded = func() { rc.Trigger() }

	for i := 0; i < 40; i++ {
		m.ProbeOnce()
	}
	if st := rc.State(); st != recovery.StateExhausted {
		t.Errorf("state after persistent outage: got %s, want exhausted", st)
	}
	if got := rc.Attempts(); got != recovery.DefaultMaxAttempts {
		t.Errorf("attempts: got %d, want %d", got, recovery.DefaultMaxAttempts)
	}
}

func TestSetOnlineEnvironmentSignal(t *testing.T) {
	m := NewMonitor(func() error { return errors.New("down") }, time.Minute)

	fired := 0
	m.OnOnline = func() { fired++ }

	m.SetOnline(true)
	if !m.IsOnline() {
		t.Error("SetOnline(true) ignored")
	}
	if fired != 1 {
		t.Errorf("OnOnline fired %d times, want 1", fired)
	}

	// Same state again: no transition, no callback.
	m.SetOnline(true)
	if fired != 1 {
		t.Errorf("OnOnline fired %d times on repeat signal, want 1", fired)
	}

	m.SetOnline(false)
	if m.IsOnline() {
		t.Error("SetOnline(false) ignored")
	}
}

func TestStartStop(t *testing.T) {
	p := &flipProbe{ok: true}
	m := NewMonitor(p.probe, 10*time.Millisecond)
	m.Start()

	deadline := time.After(time.Second)
	for !m.IsOnline() {
		select {
		case <-deadline:
			t.Fatal("monitor never came online")
		case <-time.After(time.Millisecond):
		}
	}
	m.Stop()
	m.Stop() // idempotent
}
