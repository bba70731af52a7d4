// Package recovery runs bounded remedial actions when connectivity probes
// fail repeatedly. The controller is a small state machine:
//
//	idle -> probing -> recovering -> recovered | exhausted
//
// Once exhausted, automatic retries stop; only an explicit manual trigger
// re-enters probing.
package recovery

import (
	"log/slog"
	"sync"
	"time"
)

// State is the controller's current phase.
type State string

const (
	StateIdle       State = "idle"
	StateProbing    State = "probing"
	StateRecovering State = "recovering"
	StateRecovered  State = "recovered"
	StateExhausted  State = "exhausted"
)

// DefaultMaxAttempts bounds full remediation cycles before giving up.
const DefaultMaxAttempts = 5

// DefaultSettleDelay is the pause between a remedial action and its re-probe.
const DefaultSettleDelay = 2 * time.Second

// Action is one bounded remedial step (reset transport, reconnect, clear
// client cache). Run must be safe to call repeatedly.
type Action struct {
	Name string
	Run  func() error
}

// Controller drives the remediation cycle.
type Controller struct {
	probe       func() bool
	actions     []Action
	settle      time.Duration
	maxAttempts int

	// OnRecovered fires on any successful probe (triggers an engine drain).
	OnRecovered func()
	// OnExhausted fires once when automatic retries stop.
	OnExhausted func()

	mu       sync.Mutex
	state    State
	attempts int
	busy     bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewController creates a controller around a probe and an ordered action
// list. probe returns true when the remote store answered.
func NewController(probe func() bool, actions []Action) *Controller {
	return &Controller{
		probe:       probe,
		actions:     actions,
		settle:      DefaultSettleDelay,
		maxAttempts: DefaultMaxAttempts,
		state:       StateIdle,
		stop:        make(chan struct{}),
	}
}

// SetSettleDelay overrides the post-action settle delay (tests).
func (c *Controller) SetSettleDelay(d time.Duration) { c.settle = d }

// SetMaxAttempts overrides the cycle bound (tests).
func (c *Controller) SetMaxAttempts(n int) { c.maxAttempts = n }

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many full cycles have run since the last recovery.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Reset clears the accumulated attempts after connectivity returns outside a
// recovery cycle (the monitor's own probe succeeded). An exhausted controller
// becomes idle again, so later outages get the full remediation budget.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.attempts = 0
	if !c.busy {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// Stop cancels any in-progress settle delay. Idempotent.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Trigger runs one automatic remediation cycle. It is a no-op while a cycle
// is already running, and after exhaustion. Returns the resulting state.
func (c *Controller) Trigger() State {
	c.mu.Lock()
	if c.busy || c.state == StateExhausted {
		st := c.state
		c.mu.Unlock()
		return st
	}
	c.busy = true
	c.mu.Unlock()
	return c.runCycle()
}

// TriggerManual resets an exhausted controller and runs a cycle. This is the
// explicit operator override behind 'leadvault recover'.
func (c *Controller) TriggerManual() State {
	c.mu.Lock()
	if c.busy {
		st := c.state
		c.mu.Unlock()
		return st
	}
	if c.state == StateExhausted {
		c.attempts = 0
	}
	c.state = StateIdle
	c.busy = true
	c.mu.Unlock()
	return c.runCycle()
}

func (c *Controller) runCycle() State {
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	c.setState(StateProbing)
	if c.probe() {
		return c.recovered()
	}

	c.setState(StateRecovering)
	for _, a := range c.actions {
		slog.Info("recovery: running action", "action", a.Name)
		if err := a.Run(); err != nil {
			slog.Warn("recovery: action failed", "action", a.Name, "err", err)
		}
		if !c.sleep(c.settle) {
			return c.State() // shut down mid-cycle
		}
		if c.probe() {
			return c.recovered()
		}
	}

	c.mu.Lock()
	c.attempts++
	exhausted := c.attempts >= c.maxAttempts
	if exhausted {
		c.state = StateExhausted
	} else {
		c.state = StateIdle
	}
	attempts := c.attempts
	c.mu.Unlock()

	if exhausted {
		slog.Warn("recovery: exhausted", "attempts", attempts)
		if c.OnExhausted != nil {
			c.OnExhausted()
		}
		return StateExhausted
	}
	slog.Debug("recovery: cycle failed", "attempts", attempts)
	return StateIdle
}

func (c *Controller) recovered() State {
	c.mu.Lock()
	c.state = StateRecovered
	c.attempts = 0
	c.mu.Unlock()
	slog.Info("recovery: recovered")
	if c.OnRecovered != nil {
		c.OnRecovered()
	}
	return StateRecovered
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// sleep waits for d unless the controller is stopped first.
func (c *Controller) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.stop:
		return false
	}
}
