package models

import (
	"fmt"
	"strings"
	"time"
)

// SyncStatus is the lifecycle state of a captured lead.
type SyncStatus string

const (
	StatusPending         SyncStatus = "pending"
	StatusSyncing         SyncStatus = "syncing"
	StatusSynced          SyncStatus = "synced"
	StatusFailedPermanent SyncStatus = "failed_permanent"
)

// IsValidStatus checks if the given status string is valid.
func IsValidStatus(s SyncStatus) bool {
	switch s {
	case StatusPending, StatusSyncing, StatusSynced, StatusFailedPermanent:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed.
// pending -> syncing -> {synced | pending | failed_permanent}; synced is terminal.
func CanTransition(from, to SyncStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusSyncing
	case StatusSyncing:
		return to == StatusSynced || to == StatusPending || to == StatusFailedPermanent
	default:
		return false
	}
}

// LeadPayload holds the contact fields captured from a form or import.
// The sync engine treats everything here as opaque.
type LeadPayload struct {
	Email   string            `json:"email"`
	Name    string            `json:"name,omitempty"`
	Company string            `json:"company,omitempty"`
	Phone   string            `json:"phone,omitempty"`
	Source  string            `json:"source,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Validate checks the minimum payload requirements before capture.
func (p *LeadPayload) Validate() error {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return fmt.Errorf("invalid email: %s", email)
	}
	return nil
}

// LeadRecord is a locally captured lead awaiting (or finished with) sync.
type LeadRecord struct {
	LocalID       string      `json:"local_id"`
	Payload       LeadPayload `json:"payload"`
	TenantID      string      `json:"tenant_id"`
	CapturedAt    time.Time   `json:"captured_at"`
	SyncStatus    SyncStatus  `json:"sync_status"`
	RemoteID      string      `json:"remote_id,omitempty"`
	AttemptCount  int         `json:"attempt_count"`
	LastAttemptAt *time.Time  `json:"last_attempt_at,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
}

// IsPending reports whether the record still needs a sync attempt.
func (r *LeadRecord) IsPending() bool {
	return r.SyncStatus == StatusPending
}

// QueueStats summarizes the queue for the control surface.
type QueueStats struct {
	Pending         int `json:"pending"`
	Syncing         int `json:"syncing"`
	Synced          int `json:"synced"`
	FailedPermanent int `json:"failed_permanent"`
}

// Total returns the total number of records across all states.
func (s QueueStats) Total() int {
	return s.Pending + s.Syncing + s.Synced + s.FailedPermanent
}
