// Package tenant resolves the active tenant scope from an ordered list of
// identity sources. Resolution is pure: every provider is a function over an
// explicitly passed snapshot, never a live scan of ambient state.
package tenant

import "errors"

// ErrNoTenant is returned when every provider yields an empty tenant.
var ErrNoTenant = errors.New("no tenant could be resolved")

// Source names where a tenant id came from, highest priority first.
type Source string

const (
	SourceSession    Source = "session"
	SourceAppState   Source = "app_state"
	SourceProfile    Source = "cached_profile"
	SourceCredential Source = "credential_cache"
	SourceFallback   Source = "fallback"
)

// Snapshot is the point-in-time identity state a resolver walks. Callers
// build it from whatever signals they have; empty fields are skipped.
type Snapshot struct {
	SessionTenant    string // live authenticated session
	SelectedTenant   string // tenant picked in the running app
	ProfileTenant    string // cached local profile
	CredentialTenant string // persisted credential cache
	FallbackTenant   string // last-known-good static fallback
}

// Identity is a resolution result: which tenant, and which source won.
type Identity struct {
	TenantID string
	Source   Source
}

// Provider yields a tenant id from a snapshot, or "" if it has none.
type Provider struct {
	Source Source
	Get    func(Snapshot) string
}

// DefaultProviders is the fixed priority order: live session identity, then
// in-memory app selection, cached profile, credential cache, static fallback.
func DefaultProviders() []Provider {
	return []Provider{
		{SourceSession, func(s Snapshot) string { return s.SessionTenant }},
		{SourceAppState, func(s Snapshot) string { return s.SelectedTenant }},
		{SourceProfile, func(s Snapshot) string { return s.ProfileTenant }},
		{SourceCredential, func(s Snapshot) string { return s.CredentialTenant }},
		{SourceFallback, func(s Snapshot) string { return s.FallbackTenant }},
	}
}

// Resolver walks providers in order and returns the first non-empty result.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver with the default provider order.
func NewResolver() *Resolver {
	return &Resolver{providers: DefaultProviders()}
}

// NewResolverWith creates a resolver with a custom provider order (tests,
// embedded deployments).
func NewResolverWith(providers []Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the highest-priority non-empty tenant from the snapshot.
// Returns ErrNoTenant rather than guessing when every source is empty.
func (r *Resolver) Resolve(snap Snapshot) (Identity, error) {
	for _, p := range r.providers {
		if id := p.Get(snap); id != "" {
			return Identity{TenantID: id, Source: p.Source}, nil
		}
	}
	return Identity{}, ErrNoTenant
}
