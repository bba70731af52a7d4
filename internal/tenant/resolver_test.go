package tenant

import (
	"errors"
	"testing"
)

func TestResolvePriorityOrder(t *testing.T) {
	r := NewResolver()

	// Profile beats fallback when session and app state are absent.
	snap := Snapshot{
		ProfileTenant:  "T1",
		FallbackTenant: "T0",
	}
	id, err := r.Resolve(snap)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id.TenantID != "T1" {
		t.Errorf("tenant: got %s, want T1", id.TenantID)
	}
	if id.Source != SourceProfile {
		t.Errorf("source: got %s, want %s", id.Source, SourceProfile)
	}

	// A live session wins over everything.
	snap.SessionTenant = "T9"
	snap.SelectedTenant = "T5"
	id, err = r.Resolve(snap)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id.TenantID != "T9" || id.Source != SourceSession {
		t.Errorf("got %s/%s, want T9/%s", id.TenantID, id.Source, SourceSession)
	}
}

func TestResolveEachSource(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name   string
		snap   Snapshot
		want   string
		source Source
	}{
		{"session", Snapshot{SessionTenant: "a"}, "a", SourceSession},
		{"app state", Snapshot{SelectedTenant: "b"}, "b", SourceAppState},
		{"profile", Snapshot{ProfileTenant: "c"}, "c", SourceProfile},
		{"credential", Snapshot{CredentialTenant: "d"}, "d", SourceCredential},
		{"fallback", Snapshot{FallbackTenant: "e"}, "e", SourceFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Resolve(tt.snap)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if id.TenantID != tt.want || id.Source != tt.source {
				t.Errorf("got %s/%s, want %s/%s", id.TenantID, id.Source, tt.want, tt.source)
			}
		})
	}
}

func TestResolveNoTenant(t *testing.T) {
	_, err := NewResolver().Resolve(Snapshot{})
	if !errors.Is(err, ErrNoTenant) {
		t.Fatalf("got %v, want ErrNoTenant", err)
	}
}

func TestResolveCustomProviders(t *testing.T) {
	r := NewResolverWith([]Provider{
		{SourceFallback, func(s Snapshot) string { return s.FallbackTenant }},
	})
	snap := Snapshot{SessionTenant: "ignored", FallbackTenant: "only"}
	id, err := r.Resolve(snap)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id.TenantID != "only" {
		t.Errorf("got %s, want only", id.TenantID)
	}
}
