// Package registry maintains one recurring daily job per user on a single
// cron runner. Jobs are created from chat commands and rebuilt from the
// store at startup; pause keeps the trigger configuration and only gates
// firing.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pricewatch/pkg/logx"
)

// ErrNotScheduled is returned by Pause/Resume/Remove when no job exists
// for the user. Callers recover by scheduling from the stored row.
var ErrNotScheduled = errors.New("no job scheduled for user")

// Job is the work fired for a user, normally the notifier run.
type Job func(ctx context.Context, userID int64) error

type Config struct {
	// Location is the bot's reference timezone; fire times passed to
	// Schedule are wall-clock in this location.
	Location *time.Location
	// MaxConcurrent bounds simultaneous job runs across all users.
	MaxConcurrent int
}

type entry struct {
	id     cron.EntryID
	hour   int
	minute int
	paused bool
}

// JobInfo is a read-only view of one scheduled job.
type JobInfo struct {
	Hour   int
	Minute int
	Paused bool
	Next   time.Time
}

type Registry struct {
	mu sync.Mutex

	log logx.Logger
	job Job
	c   *cron.Cron

	entries map[int64]*entry
	running map[int64]bool
	sem     chan struct{}

	baseCtx context.Context
	started bool
}

func New(cfg Config, job Job, log logx.Logger) *Registry {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	maxc := cfg.MaxConcurrent
	if maxc <= 0 {
		maxc = 4
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Registry{
		log:     log,
		job:     job,
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		entries: map[int64]*entry{},
		running: map[int64]bool{},
		sem:     make(chan struct{}, maxc),
		baseCtx: context.Background(),
	}
}

// Start begins firing. Jobs may be scheduled before Start; they become
// active once the runner starts.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	if ctx != nil {
		r.baseCtx = ctx
	}
	r.c.Start()
	r.log.Info("job registry started", logx.Int("jobs", len(r.entries)))
}

// Stop halts the trigger and waits for in-flight runs, bounded by ctx.
func (r *Registry) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	stopCtx := r.c.Stop()
	r.mu.Unlock()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		r.log.Warn("job registry stop timed out with runs in flight")
	}
	r.log.Info("job registry stopped")
}

// Schedule creates or replaces the user's daily trigger at hour:minute
// (already adjusted to the registry's timezone). Replace semantics make
// the restart-time bulk load safe to run over existing jobs.
func (r *Registry) Schedule(userID int64, hour, minute int, paused bool) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("fire time %d:%02d out of range", hour, minute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[userID]; ok {
		r.c.Remove(old.id)
	}
	id, err := r.c.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), func() {
		r.fire(userID)
	})
	if err != nil {
		delete(r.entries, userID)
		return err
	}
	r.entries[userID] = &entry{id: id, hour: hour, minute: minute, paused: paused}
	return nil
}

// Reschedule moves an existing job to a new fire time, preserving its
// paused state. A missing job is treated as a fresh schedule so that any
// store/registry drift heals instead of erroring.
func (r *Registry) Reschedule(userID int64, hour, minute int) error {
	r.mu.Lock()
	paused := false
	if e, ok := r.entries[userID]; ok {
		paused = e.paused
	}
	r.mu.Unlock()
	return r.Schedule(userID, hour, minute, paused)
}

// Pause suspends firing without touching the trigger configuration.
func (r *Registry) Pause(userID int64) error {
	return r.setPaused(userID, true)
}

// Resume re-enables a paused job.
func (r *Registry) Resume(userID int64) error {
	return r.setPaused(userID, false)
}

func (r *Registry) setPaused(userID int64, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return ErrNotScheduled
	}
	e.paused = paused
	return nil
}

// Remove cancels and discards the user's job.
func (r *Registry) Remove(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return ErrNotScheduled
	}
	r.c.Remove(e.id)
	delete(r.entries, userID)
	return nil
}

// Has reports whether a job exists for the user.
func (r *Registry) Has(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[userID]
	return ok
}

// Snapshot returns a copy of the current job table.
func (r *Registry) Snapshot() map[int64]JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]JobInfo, len(r.entries))
	for id, e := range r.entries {
		info := JobInfo{Hour: e.hour, Minute: e.minute, Paused: e.paused}
		if ce := r.c.Entry(e.id); ce.ID == e.id {
			info.Next = ce.Next
		}
		out[id] = info
	}
	return out
}

// fire runs the user's job unless the job is paused or a previous run for
// the same user is still in flight. Total concurrency is bounded by the
// registry semaphore.
func (r *Registry) fire(userID int64) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok || e.paused {
		r.mu.Unlock()
		return
	}
	if r.running[userID] {
		r.mu.Unlock()
		r.log.Warn("previous run still in flight, skipping", logx.Int64("user", userID))
		return
	}
	r.running[userID] = true
	ctx := r.baseCtx
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.running, userID)
		r.mu.Unlock()
	}()

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return
	}

	start := time.Now()
	err := r.job(ctx, userID)
	if err != nil {
		r.log.Warn("run failed", logx.Int64("user", userID), logx.Duration("took", time.Since(start)), logx.Err(err))
		return
	}
	r.log.Info("run ok", logx.Int64("user", userID), logx.Duration("took", time.Since(start)))
}
