package backoff

import (
	"testing"
	"time"
)

func TestNextHalvesTowardMin(t *testing.T) {
	p := Default

	if got := p.Next(60 * time.Second); got != 30*time.Second {
		t.Errorf("Next(60s): got %s, want 30s", got)
	}
	if got := p.Next(15 * time.Second); got != 10*time.Second {
		t.Errorf("Next(15s): got %s, want clamped 10s", got)
	}
	if got := p.Next(10 * time.Second); got != 10*time.Second {
		t.Errorf("Next(10s): got %s, want 10s floor", got)
	}
}

func TestSlowerGrowsTowardMax(t *testing.T) {
	p := Default

	if got := p.Slower(20 * time.Second); got != 30*time.Second {
		t.Errorf("Slower(20s): got %s, want 30s", got)
	}
	if got := p.Slower(50 * time.Second); got != 60*time.Second {
		t.Errorf("Slower(50s): got %s, want capped 60s", got)
	}
	if got := p.Slower(60 * time.Second); got != 60*time.Second {
		t.Errorf("Slower(60s): got %s, want 60s ceiling", got)
	}
}

func TestRepeatedFailuresStayBounded(t *testing.T) {
	p := Default
	d := p.Base
	for i := 0; i < 20; i++ {
		d = p.Slower(d)
		if d > p.Max {
			t.Fatalf("delay exceeded max after %d failures: %s", i+1, d)
		}
	}
	if d != p.Max {
		t.Errorf("delay did not converge to max: %s", d)
	}
}

func TestClamp(t *testing.T) {
	p := Default
	if got := p.Clamp(time.Second); got != p.Min {
		t.Errorf("Clamp(1s): got %s, want %s", got, p.Min)
	}
	if got := p.Clamp(5 * time.Minute); got != p.Max {
		t.Errorf("Clamp(5m): got %s, want %s", got, p.Max)
	}
	if got := p.Clamp(30 * time.Second); got != 30*time.Second {
		t.Errorf("Clamp(30s): got %s, want unchanged", got)
	}
}
