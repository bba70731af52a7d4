// Package backoff provides the shared retry-delay policy used by the sync
// engine tick scheduler and the recovery controller.
package backoff

import "time"

// Policy describes an adaptive retry interval. A successful cycle halves the
// delay toward Min; a failed cycle multiplies it by Multiplier up to Max.
// After IdleAfter consecutive empty cycles the caller should stop its timer.
type Policy struct {
	Base       time.Duration
	Min        time.Duration
	Max        time.Duration
	Multiplier float64
	IdleAfter  int
}

// Default is the engine's tick policy: 15s base, bounded to [10s, 60s],
// growing 1.5x on failure, idling after 3 empty ticks.
var Default = Policy{
	Base:       15 * time.Second,
	Min:        10 * time.Second,
	Max:        60 * time.Second,
	Multiplier: 1.5,
	IdleAfter:  3,
}

// Next computes the delay following a cycle that made progress (synced at
// least one record): halve toward Min.
func (p Policy) Next(current time.Duration) time.Duration {
	d := current / 2
	if d < p.Min {
		d = p.Min
	}
	return d
}

// Slower computes the delay following a cycle that failed to make progress:
// multiply by Multiplier, capped at Max.
func (p Policy) Slower(current time.Duration) time.Duration {
	d := time.Duration(float64(current) * p.Multiplier)
	if d > p.Max {
		d = p.Max
	}
	return d
}

// Clamp bounds an arbitrary delay to [Min, Max].
func (p Policy) Clamp(d time.Duration) time.Duration {
	if d < p.Min {
		return p.Min
	}
	if d > p.Max {
		return p.Max
	}
	return d
}
