package leadconfig

import (
	"testing"
	"time"
)

// isolate points the config dir at a throwaway home and clears the env vars
// the getters consult.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"LEADVAULT_URL", "LEADVAULT_API_KEY", "LEADVAULT_SYNC",
		"LEADVAULT_BATCH_SIZE", "LEADVAULT_PROBE_INTERVAL", "LEADVAULT_RETENTION",
		"LEADVAULT_WEBHOOK_URL", "LEADVAULT_WEBHOOK_SECRET",
		"LEADVAULT_TENANT", "LEADVAULT_TENANT_FALLBACK",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	isolate(t)

	if got := GetServerURL(); got != "http://localhost:8080" {
		t.Errorf("server url: got %s", got)
	}
	if !GetSyncEnabled() {
		t.Error("sync should default to enabled")
	}
	if got := GetBatchSize(); got != 5 {
		t.Errorf("batch size: got %d, want 5", got)
	}
	if got := GetProbeInterval(); got != 30*time.Second {
		t.Errorf("probe interval: got %s, want 30s", got)
	}
	if got := GetRetention(); got != 24*time.Hour {
		t.Errorf("retention: got %s, want 24h", got)
	}
	if IsAuthenticated() {
		t.Error("no credentials stored, IsAuthenticated should be false")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)

	n := 9
	err := SaveConfig(&Config{
		Sync: SyncSettings{URL: "http://file:1", BatchSize: &n},
	})
	if err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if got := GetServerURL(); got != "http://file:1" {
		t.Errorf("file url not read: got %s", got)
	}
	if got := GetBatchSize(); got != 9 {
		t.Errorf("file batch size not read: got %d", got)
	}

	t.Setenv("LEADVAULT_URL", "http://env:2")
	t.Setenv("LEADVAULT_BATCH_SIZE", "3")
	if got := GetServerURL(); got != "http://env:2" {
		t.Errorf("env url not preferred: got %s", got)
	}
	if got := GetBatchSize(); got != 3 {
		t.Errorf("env batch size not preferred: got %d", got)
	}
}

func TestAuthPrecedenceForURL(t *testing.T) {
	isolate(t)

	if err := SaveConfig(&Config{Sync: SyncSettings{URL: "http://file:1"}}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := SaveAuth(&AuthCredentials{APIKey: "k", ServerURL: "http://auth:3"}); err != nil {
		t.Fatalf("SaveAuth failed: %v", err)
	}

	// auth.json outranks config.json.
	if got := GetServerURL(); got != "http://auth:3" {
		t.Errorf("got %s, want auth url", got)
	}
	if !IsAuthenticated() {
		t.Error("stored key not picked up")
	}

	if err := ClearAuth(); err != nil {
		t.Fatalf("ClearAuth failed: %v", err)
	}
	if IsAuthenticated() {
		t.Error("credentials survive ClearAuth")
	}
	// ClearAuth twice is fine.
	if err := ClearAuth(); err != nil {
		t.Errorf("second ClearAuth failed: %v", err)
	}
}

func TestSyncEnabledParsing(t *testing.T) {
	isolate(t)

	t.Setenv("LEADVAULT_SYNC", "0")
	if GetSyncEnabled() {
		t.Error("LEADVAULT_SYNC=0 ignored")
	}
	t.Setenv("LEADVAULT_SYNC", "true")
	if !GetSyncEnabled() {
		t.Error("LEADVAULT_SYNC=true ignored")
	}
	t.Setenv("LEADVAULT_SYNC", "banana")
	if !GetSyncEnabled() {
		t.Error("unparseable value should fall back to default true")
	}
}

func TestDeviceIDGeneratedOnce(t *testing.T) {
	isolate(t)

	id, err := GetDeviceID()
	if err != nil {
		t.Fatalf("GetDeviceID failed: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("device id length: got %d, want 32 hex chars", len(id))
	}

	// Persisting it makes the id stable.
	if err := SaveAuth(&AuthCredentials{DeviceID: id}); err != nil {
		t.Fatalf("SaveAuth failed: %v", err)
	}
	again, err := GetDeviceID()
	if err != nil {
		t.Fatalf("GetDeviceID failed: %v", err)
	}
	if again != id {
		t.Errorf("device id changed: %s -> %s", id, again)
	}
}

func TestTenantSnapshotSources(t *testing.T) {
	isolate(t)

	if err := SaveConfig(&Config{Tenant: TenantSettings{Selected: "sel", Fallback: "fb"}}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	live := time.Now().Add(time.Hour).Format(time.RFC3339)
	if err := SaveAuth(&AuthCredentials{
		APIKey:        "k",
		SessionTenant: "sess",
		ProfileTenant: "prof",
		ExpiresAt:     live,
	}); err != nil {
		t.Fatalf("SaveAuth failed: %v", err)
	}

	snap := TenantSnapshot()
	if snap.SessionTenant != "sess" {
		t.Errorf("session: got %s, want sess", snap.SessionTenant)
	}
	if snap.SelectedTenant != "sel" || snap.FallbackTenant != "fb" || snap.ProfileTenant != "prof" {
		t.Errorf("snapshot: got %+v", snap)
	}
	if snap.CredentialTenant != "sess" {
		t.Errorf("credential cache: got %s, want sess", snap.CredentialTenant)
	}
}

func TestExpiredSessionDowngradesToCredentialCache(t *testing.T) {
	isolate(t)

	expired := time.Now().Add(-time.Hour).Format(time.RFC3339)
	if err := SaveAuth(&AuthCredentials{SessionTenant: "sess", ExpiresAt: expired}); err != nil {
		t.Fatalf("SaveAuth failed: %v", err)
	}

	snap := TenantSnapshot()
	if snap.SessionTenant != "" {
		t.Error("expired credential still counted as live session")
	}
	if snap.CredentialTenant != "sess" {
		t.Errorf("credential cache: got %s, want sess", snap.CredentialTenant)
	}
}

func TestEnvTenantOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("LEADVAULT_TENANT", "env-sel")
	t.Setenv("LEADVAULT_TENANT_FALLBACK", "env-fb")

	snap := TenantSnapshot()
	if snap.SelectedTenant != "env-sel" || snap.FallbackTenant != "env-fb" {
		t.Errorf("snapshot: got %+v", snap)
	}
}
