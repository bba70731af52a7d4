// Package engine drains the durable lead queue against the remote CRM store.
// One tick selects a batch of pending records, re-resolves the tenant per
// record, and attempts a forced remote write for each. Tick timing adapts:
// success pulls the interval toward its minimum, failure pushes it toward the
// maximum, and a run of empty ticks parks the timer entirely until the next
// capture or connectivity-restored wake.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcus/leadvault/internal/backoff"
	"github.com/marcus/leadvault/internal/models"
	"github.com/marcus/leadvault/internal/notify"
	"github.com/marcus/leadvault/internal/queue"
	"github.com/marcus/leadvault/internal/remote"
	"github.com/marcus/leadvault/internal/tenant"
)

// DefaultBatchSize is the number of pending records drained per tick.
const DefaultBatchSize = 5

// ErrTickInProgress is returned when a tick is requested while another is
// still running. The request is coalesced into "run again after the current
// tick completes".
var ErrTickInProgress = errors.New("sync tick already in progress")

var errAlreadyClaimed = errors.New("record no longer pending")

// Config tunes the engine.
type Config struct {
	BatchSize int
	Policy    backoff.Policy
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{BatchSize: DefaultBatchSize, Policy: backoff.Default}
}

// TickResult summarizes one drain pass.
type TickResult struct {
	Skipped   bool // offline, nothing attempted
	Empty     bool // no pending records
	Processed int  // records a remote write was attempted for
	Synced    int  // records that reached the remote store (incl. adopted duplicates)
	Failed    int  // transient failures, left pending
	Permanent int  // validation rejections, marked failed_permanent
}

// Stats is the control-surface snapshot.
type Stats struct {
	Pending         int           `json:"pending"`
	Synced          int           `json:"synced"`
	FailedPermanent int           `json:"failed_permanent"`
	Interval        time.Duration `json:"interval"`
	Idle            bool          `json:"idle"`
	Online          bool          `json:"online"`
}

// Engine owns the tick loop. Construct with New, start with Start, and
// always Stop before discarding; no background work survives Stop.
type Engine struct {
	queue    *queue.Queue
	store    remote.Store
	resolver *tenant.Resolver
	snapshot func() tenant.Snapshot
	online   func() bool
	bridge   *notify.Bridge
	cfg      Config

	mu         sync.Mutex
	inFlight   bool
	rerun      bool
	interval   time.Duration
	emptyTicks int
	idle       bool

	wake      chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	started   bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// New wires an engine. snapshot supplies the identity state used to
// re-resolve the tenant on every attempt; online is consulted at the top of
// each tick.
func New(q *queue.Queue, store remote.Store, resolver *tenant.Resolver, snapshot func() tenant.Snapshot, online func() bool, bridge *notify.Bridge, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Policy.Base <= 0 {
		cfg.Policy = backoff.Default
	}
	return &Engine{
		queue:    q,
		store:    store,
		resolver: resolver,
		snapshot: snapshot,
		online:   online,
		bridge:   bridge,
		cfg:      cfg,
		interval: cfg.Policy.Base,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop goroutine. Safe to call once.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.mu.Lock()
		e.started = true
		e.mu.Unlock()
		go e.loop()
	})
}

// Stop cancels the timer and stops the loop. An in-flight remote call runs
// to completion first; nothing is scheduled afterwards.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		<-e.done
	}
}

// ForceSyncNow requests an out-of-cycle drain. Non-blocking; a wake arriving
// while a tick runs is coalesced into one follow-up tick.
func (e *Engine) ForceSyncNow() {
	e.mu.Lock()
	e.idle = false
	e.emptyTicks = 0
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// NotifyAppend reports a fresh capture: emits the queued event and restarts
// an idle timer immediately.
func (e *Engine) NotifyAppend() {
	if e.bridge != nil {
		e.bridge.Emit(notify.KindQueued, 1)
	}
	e.ForceSyncNow()
}

// Interval returns the current adaptive tick delay.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Idle reports whether the tick timer is parked.
func (e *Engine) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idle
}

// Stats returns queue counts plus engine timing state.
func (e *Engine) Stats() (Stats, error) {
	qs, err := e.queue.Stats()
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Pending:         qs.Pending + qs.Syncing,
		Synced:          qs.Synced,
		FailedPermanent: qs.FailedPermanent,
		Interval:        e.interval,
		Idle:            e.idle,
		Online:          e.online(),
	}, nil
}

// loop is the single goroutine that owns the timer. All ticks run here or
// through TickNow's guard, never concurrently.
func (e *Engine) loop() {
	defer close(e.done)
	timer := time.NewTimer(e.Interval())
	defer timer.Stop()
	timerActive := true

	for {
		var timerC <-chan time.Time
		if timerActive {
			timerC = timer.C
		}
		select {
		case <-e.stopCh:
			return
		case <-e.wake:
			if timerActive && !timer.Stop() {
				<-timer.C
			}
			timerActive = false
		case <-timerC:
			timerActive = false
		}

		if _, err := e.TickNow(); err != nil && !errors.Is(err, ErrTickInProgress) {
			slog.Warn("sync: tick failed", "err", err)
		}
		for e.takeRerun() {
			if _, err := e.TickNow(); err != nil {
				break
			}
		}

		e.mu.Lock()
		idle := e.idle
		d := e.interval
		e.mu.Unlock()
		if idle {
			slog.Debug("sync: idle, timer parked")
			continue
		}
		timer.Reset(d)
		timerActive = true
	}
}

func (e *Engine) takeRerun() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rerun
	e.rerun = false
	return r
}

// TickNow runs one guarded drain pass synchronously. If a tick is already in
// flight it records a coalesced rerun and returns ErrTickInProgress without
// touching the remote store.
func (e *Engine) TickNow() (*TickResult, error) {
	e.mu.Lock()
	if e.inFlight {
		e.rerun = true
		e.mu.Unlock()
		return nil, ErrTickInProgress
	}
	e.inFlight = true
	e.mu.Unlock()

	res := e.tick()

	e.mu.Lock()
	e.inFlight = false
	e.applyTiming(res)
	e.mu.Unlock()
	return res, nil
}

// tick is one drain pass: skip when offline, then process up to BatchSize
// pending records oldest-first.
func (e *Engine) tick() *TickResult {
	res := &TickResult{}
	if !e.online() {
		res.Skipped = true
		return res
	}

	batch, err := e.queue.PendingOldest(e.cfg.BatchSize)
	if err != nil {
		slog.Warn("sync: read pending", "err", err)
		res.Failed++
		return res
	}
	if len(batch) == 0 {
		res.Empty = true
		return res
	}

	for i := range batch {
		e.syncOne(&batch[i], res)
	}

	if res.Synced > 0 && e.bridge != nil {
		e.bridge.Emit(notify.KindSynced, res.Synced)
	}
	slog.Debug("sync: tick done", "processed", res.Processed, "synced", res.Synced, "failed", res.Failed, "permanent", res.Permanent)
	return res
}

// syncOne pushes a single record. Failures never abort the remaining batch.
func (e *Engine) syncOne(rec *models.LeadRecord, res *TickResult) {
	// Tenant may have changed since capture; resolve fresh for this attempt.
	identity, err := e.resolver.Resolve(e.snapshot())
	if err != nil {
		slog.Debug("sync: no tenant, leaving pending", "local_id", rec.LocalID)
		return
	}

	// Claim pending -> syncing. Losing the claim means another tick already
	// took this record; skip without a remote call.
	err = e.queue.Update(rec.LocalID, func(r *models.LeadRecord) error {
		if r.SyncStatus != models.StatusPending {
			return errAlreadyClaimed
		}
		r.SyncStatus = models.StatusSyncing
		r.TenantID = identity.TenantID
		return nil
	})
	if err != nil {
		if !errors.Is(err, errAlreadyClaimed) {
			slog.Warn("sync: claim failed", "local_id", rec.LocalID, "err", err)
		}
		return
	}
	res.Processed++

	// Local-only metadata stays local; the server sees the payload, the
	// resolved tenant, and the local ref it dedupes on.
	resp, err := e.store.CreateLead(&remote.CreateRequest{
		TenantID:   identity.TenantID,
		LocalRef:   rec.LocalID,
		ForceWrite: true,
		Lead:       rec.Payload,
		CapturedAt: rec.CapturedAt.UTC().Format(time.RFC3339),
	})

	now := time.Now().UTC()
	var dup *remote.DuplicateKeyError
	var vErr *remote.ValidationError
	switch {
	case err == nil:
		e.markSynced(rec.LocalID, resp.ID, now, res)

	case errors.As(err, &dup):
		// Remote already holds this record: adopt its id, count as success.
		if dup.RemoteID == "" {
			slog.Warn("sync: duplicate without remote id, retrying later", "local_id", rec.LocalID)
			e.markRetry(rec.LocalID, err, now, res)
			return
		}
		e.markSynced(rec.LocalID, dup.RemoteID, now, res)

	case errors.As(err, &vErr):
		slog.Warn("sync: payload rejected", "local_id", rec.LocalID, "err", err)
		uerr := e.queue.Update(rec.LocalID, func(r *models.LeadRecord) error {
			r.SyncStatus = models.StatusFailedPermanent
			r.AttemptCount++
			r.LastAttemptAt = &now
			r.LastError = err.Error()
			return nil
		})
		if uerr != nil {
			slog.Warn("sync: mark permanent failed", "local_id", rec.LocalID, "err", uerr)
			return
		}
		res.Permanent++
		if e.bridge != nil {
			e.bridge.Emit(notify.KindSyncFailedPermanent, 1)
		}

	default:
		// Connectivity or permission failure: back to pending for a later
		// tick (permission may clear after the tenant changes).
		slog.Debug("sync: transient failure", "local_id", rec.LocalID, "err", err)
		e.markRetry(rec.LocalID, err, now, res)
	}
}

func (e *Engine) markSynced(localID, remoteID string, now time.Time, res *TickResult) {
	err := e.queue.Update(localID, func(r *models.LeadRecord) error {
		r.SyncStatus = models.StatusSynced
		r.RemoteID = remoteID
		r.LastAttemptAt = &now
		r.LastError = ""
		return nil
	})
	if err != nil {
		slog.Warn("sync: mark synced failed", "local_id", localID, "err", err)
		return
	}
	res.Synced++
}

func (e *Engine) markRetry(localID string, cause error, now time.Time, res *TickResult) {
	err := e.queue.Update(localID, func(r *models.LeadRecord) error {
		r.SyncStatus = models.StatusPending
		r.AttemptCount++
		r.LastAttemptAt = &now
		r.LastError = cause.Error()
		return nil
	})
	if err != nil {
		slog.Warn("sync: mark retry failed", "local_id", localID, "err", err)
		return
	}
	res.Failed++
}

// applyTiming adjusts the adaptive interval after a tick. Caller holds e.mu.
func (e *Engine) applyTiming(res *TickResult) {
	if res == nil || res.Skipped {
		return
	}
	if res.Empty {
		e.emptyTicks++
		if e.emptyTicks >= e.cfg.Policy.IdleAfter {
			e.idle = true
		}
		return
	}
	e.emptyTicks = 0
	if res.Synced > 0 {
		e.interval = e.cfg.Policy.Next(e.interval)
	} else if res.Failed > 0 {
		e.interval = e.cfg.Policy.Slower(e.interval)
	}
}
