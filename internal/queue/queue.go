// Package queue is the persisted, crash-surviving store of lead records
// pending or completed sync. One keyed blob per tenant scope holds the
// ordered record list; the blob list is the single source of truth.
//
// Every mutation reads the full blob, applies the change in memory, and
// writes the blob back inside one transaction, so a crash never leaves a
// torn write. Exactly one process may mutate the queue at a time, enforced
// by an OS file lock.
package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/leadvault/internal/models"
	_ "modernc.org/sqlite"
)

const (
	dbFile = ".leadvault/queue.db"
	// scopeUnassigned holds records captured before any tenant could be
	// resolved; the engine re-resolves them at sync time.
	scopeUnassigned = "unassigned"
	// DefaultRetention is how long synced records are kept for auditing
	// before Compact drops them.
	DefaultRetention = 24 * time.Hour
)

const schema = `
CREATE TABLE IF NOT EXISTS lead_queue (
	tenant_scope TEXT PRIMARY KEY,
	records      TEXT NOT NULL,
	updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// StorageError reports a local persistence failure. It is fatal for capture:
// when the queue cannot persist, the durability guarantee is void and the
// error must reach the capture caller synchronously.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("queue storage failed (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Queue wraps the sqlite-backed blob store.
type Queue struct {
	conn    *sql.DB
	baseDir string
	locker  *writeLocker
}

// Open opens an existing queue database.
func Open(baseDir string) (*Queue, error) {
	dbPath := filepath.Join(baseDir, dbFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("queue not found: run 'leadvault init' first")
	}
	return open(baseDir, dbPath)
}

// Initialize creates the queue database and schema.
func Initialize(baseDir string) (*Queue, error) {
	dbPath := filepath.Join(baseDir, dbFile)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}
	return open(baseDir, dbPath)
}

func open(baseDir, dbPath string) (*Queue, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	// WAL keeps readers unblocked while a mutation commits
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Queue{conn: conn, baseDir: baseDir, locker: newWriteLocker(baseDir)}, nil
}

// Close closes the queue database.
func (q *Queue) Close() error {
	return q.conn.Close()
}

// BaseDir returns the directory the queue lives under.
func (q *Queue) BaseDir() string {
	return q.baseDir
}

// withWriteLock executes fn while holding the exclusive cross-process lock.
func (q *Queue) withWriteLock(fn func() error) error {
	if err := q.locker.acquire(defaultLockTimeout); err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	defer q.locker.release()
	return fn()
}

// scopeFor maps a record's capture-time tenant to its blob key.
func scopeFor(tenantID string) string {
	if tenantID == "" {
		return scopeUnassigned
	}
	return tenantID
}

// loadScope reads and decodes one tenant scope's record list. A missing row
// is an empty list, not an error.
func loadScope(tx *sql.Tx, scope string) ([]models.LeadRecord, error) {
	var raw string
	err := tx.QueryRow(`SELECT records FROM lead_queue WHERE tenant_scope = ?`, scope).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scope %s: %w", scope, err)
	}
	var recs []models.LeadRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("decode scope %s: %w", scope, err)
	}
	return recs, nil
}

// saveScope encodes and writes one tenant scope's record list back. An empty
// list removes the row entirely.
func saveScope(tx *sql.Tx, scope string, recs []models.LeadRecord) error {
	if len(recs) == 0 {
		if _, err := tx.Exec(`DELETE FROM lead_queue WHERE tenant_scope = ?`, scope); err != nil {
			return fmt.Errorf("drop empty scope %s: %w", scope, err)
		}
		return nil
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode scope %s: %w", scope, err)
	}
	_, err = tx.Exec(`
		INSERT INTO lead_queue (tenant_scope, records, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tenant_scope) DO UPDATE SET records = excluded.records, updated_at = CURRENT_TIMESTAMP
	`, scope, string(data))
	if err != nil {
		return fmt.Errorf("write scope %s: %w", scope, err)
	}
	return nil
}

// mutateScope runs a read-modify-write cycle on one scope blob inside a
// transaction, under the write lock. Persistence failures come back as
// *StorageError; errors from fn (validation, bad transitions) pass through
// unwrapped.
func (q *Queue) mutateScope(op, scope string, fn func([]models.LeadRecord) ([]models.LeadRecord, error)) error {
	var fnErr error
	err := q.withWriteLock(func() error {
		tx, err := q.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		recs, err := loadScope(tx, scope)
		if err != nil {
			return err
		}
		updated, err := fn(recs)
		if err != nil {
			fnErr = err
			return err
		}
		if err := saveScope(tx, scope, updated); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		if fnErr != nil {
			return fnErr
		}
		return &StorageError{Op: op, Err: err}
	}
	return nil
}

// Append captures a new lead. It assigns a fresh local id, stamps the
// capture time, and persists the record as pending. Any persistence failure
// is returned synchronously as a *StorageError.
func (q *Queue) Append(payload models.LeadPayload, tenantID string) (*models.LeadRecord, error) {
	rec := models.LeadRecord{
		LocalID:    uuid.NewString(),
		Payload:    payload,
		TenantID:   tenantID,
		CapturedAt: time.Now().UTC(),
		SyncStatus: models.StatusPending,
	}
	scope := scopeFor(tenantID)
	err := q.mutateScope("append", scope, func(recs []models.LeadRecord) ([]models.LeadRecord, error) {
		return append(recs, rec), nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all records matching pred, across every tenant scope, ordered
// by capture time. A nil pred matches everything.
func (q *Queue) List(pred func(*models.LeadRecord) bool) ([]models.LeadRecord, error) {
	rows, err := q.conn.Query(`SELECT tenant_scope, records FROM lead_queue`)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()

	var all []models.LeadRecord
	for rows.Next() {
		var scope, raw string
		if err := rows.Scan(&scope, &raw); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		var recs []models.LeadRecord
		if err := json.Unmarshal([]byte(raw), &recs); err != nil {
			return nil, fmt.Errorf("decode scope %s: %w", scope, err)
		}
		for i := range recs {
			if pred == nil || pred(&recs[i]) {
				all = append(all, recs[i])
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CapturedAt.Before(all[j].CapturedAt)
	})
	return all, nil
}

// PendingOldest returns up to limit pending records, oldest first.
func (q *Queue) PendingOldest(limit int) ([]models.LeadRecord, error) {
	pending, err := q.List(func(r *models.LeadRecord) bool { return r.IsPending() })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Get returns a single record by local id, or nil if absent.
func (q *Queue) Get(localID string) (*models.LeadRecord, error) {
	recs, err := q.List(func(r *models.LeadRecord) bool { return r.LocalID == localID })
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Update applies patch to the record with the given local id. The patch runs
// between the blob read and write of the same transaction, so there is no
// window for a lost update. Status changes are checked against the allowed
// transitions; synced records are immutable.
func (q *Queue) Update(localID string, patch func(*models.LeadRecord) error) error {
	scopes, err := q.allScopes()
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	for _, scope := range scopes {
		found := false
		err := q.mutateScope("update", scope, func(recs []models.LeadRecord) ([]models.LeadRecord, error) {
			for i := range recs {
				if recs[i].LocalID != localID {
					continue
				}
				found = true
				before := recs[i].SyncStatus
				if before == models.StatusSynced {
					return nil, fmt.Errorf("record %s is synced and immutable", localID)
				}
				if err := patch(&recs[i]); err != nil {
					return nil, err
				}
				after := recs[i].SyncStatus
				if after != before && !models.CanTransition(before, after) {
					return nil, fmt.Errorf("invalid status transition %s -> %s for %s", before, after, localID)
				}
				if (recs[i].RemoteID != "") != (after == models.StatusSynced) {
					return nil, fmt.Errorf("remote id must be set exactly when synced (record %s)", localID)
				}
				return recs, nil
			}
			return recs, nil
		})
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	return fmt.Errorf("record not found: %s", localID)
}

// Remove deletes a record by local id.
func (q *Queue) Remove(localID string) error {
	scopes, err := q.allScopes()
	if err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	for _, scope := range scopes {
		found := false
		err := q.mutateScope("remove", scope, func(recs []models.LeadRecord) ([]models.LeadRecord, error) {
			out := recs[:0]
			for _, r := range recs {
				if r.LocalID == localID {
					found = true
					continue
				}
				out = append(out, r)
			}
			return out, nil
		})
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	return fmt.Errorf("record not found: %s", localID)
}

// RequeueStale resets records stranded in syncing back to pending. A record
// stays syncing only for the duration of one remote call, so finding one
// here means a previous process died between the claim and the result write.
// Returns the number of records requeued.
func (q *Queue) RequeueStale() (int, error) {
	scopes, err := q.allScopes()
	if err != nil {
		return 0, &StorageError{Op: "requeue", Err: err}
	}
	requeued := 0
	for _, scope := range scopes {
		err := q.mutateScope("requeue", scope, func(recs []models.LeadRecord) ([]models.LeadRecord, error) {
			for i := range recs {
				if recs[i].SyncStatus == models.StatusSyncing {
					recs[i].SyncStatus = models.StatusPending
					recs[i].LastError = "sync interrupted before completion"
					requeued++
				}
			}
			return recs, nil
		})
		if err != nil {
			return requeued, err
		}
	}
	return requeued, nil
}

// Compact drops records that have been synced for longer than retention.
// Returns the number of records removed.
func (q *Queue) Compact(retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	scopes, err := q.allScopes()
	if err != nil {
		return 0, &StorageError{Op: "compact", Err: err}
	}
	removed := 0
	for _, scope := range scopes {
		err := q.mutateScope("compact", scope, func(recs []models.LeadRecord) ([]models.LeadRecord, error) {
			out := recs[:0]
			for _, r := range recs {
				if r.SyncStatus == models.StatusSynced && r.LastAttemptAt != nil && r.LastAttemptAt.Before(cutoff) {
					removed++
					continue
				}
				out = append(out, r)
			}
			return out, nil
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Stats counts records by sync status across all scopes.
func (q *Queue) Stats() (models.QueueStats, error) {
	var stats models.QueueStats
	recs, err := q.List(nil)
	if err != nil {
		return stats, err
	}
	for _, r := range recs {
		switch r.SyncStatus {
		case models.StatusPending:
			stats.Pending++
		case models.StatusSyncing:
			stats.Syncing++
		case models.StatusSynced:
			stats.Synced++
		case models.StatusFailedPermanent:
			stats.FailedPermanent++
		}
	}
	return stats, nil
}

// allScopes lists the tenant scope keys currently present.
func (q *Queue) allScopes() ([]string, error) {
	rows, err := q.conn.Query(`SELECT tenant_scope FROM lead_queue`)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()
	var scopes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}
