package leadconfig

import (
	"time"

	"github.com/marcus/leadvault/internal/tenant"
)

// TenantSnapshot assembles the identity snapshot the resolver walks.
// The live session source only counts while the credential is unexpired;
// an expired credential still feeds the lower-ranked credential-cache source.
func TenantSnapshot() tenant.Snapshot {
	snap := tenant.Snapshot{
		SelectedTenant: GetSelectedTenant(),
		FallbackTenant: GetFallbackTenant(),
	}

	creds, err := LoadAuth()
	if err != nil || creds == nil {
		return snap
	}

	if creds.SessionTenant != "" {
		if sessionLive(creds.ExpiresAt) {
			snap.SessionTenant = creds.SessionTenant
		}
		snap.CredentialTenant = creds.SessionTenant
	}
	snap.ProfileTenant = creds.ProfileTenant
	return snap
}

// sessionLive reports whether the stored credential is still valid. An
// absent expiry means a non-expiring key.
func sessionLive(expiresAt string) bool {
	if expiresAt == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return false
	}
	return time.Now().Before(t)
}
