// Package reconcile splits a running session at each local midnight and
// carries the task over to the new day.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fentz26/daylog/internal/audit"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/scheduler"
	"github.com/fentz26/daylog/internal/timer"
	"github.com/google/uuid"
)

// Reconciler is armed for the next local midnight while started.
//
// A midnight that passes while the process is down is not replayed: the
// running task keeps its old start.
type Reconciler struct {
	sched   *scheduler.Scheduler
	days    *daylog.Repo
	timer   *timer.Engine
	journal *audit.Journal

	handle   scheduler.Handle
	armedFor time.Time
}

// New creates an idle reconciler.
func New(sched *scheduler.Scheduler, days *daylog.Repo, engine *timer.Engine, journal *audit.Journal) *Reconciler {
	return &Reconciler{
		sched:   sched,
		days:    days,
		timer:   engine,
		journal: journal,
	}
}

// Start arms the reconciler for the next midnight.
func (r *Reconciler) Start() {
	r.arm(r.sched.Now())
}

// Rearm cancels the pending wake-up and arms again from the current time.
func (r *Reconciler) Rearm() {
	r.arm(r.sched.Now())
}

// Stop cancels the pending wake-up.
func (r *Reconciler) Stop() {
	r.sched.Cancel(r.handle)
	r.handle = 0
	r.armedFor = time.Time{}
}

// Armed returns the boundary the reconciler is waiting for.
func (r *Reconciler) Armed() (time.Time, bool) {
	return r.armedFor, r.handle != 0
}

func (r *Reconciler) arm(after time.Time) {
	r.sched.Cancel(r.handle)
	boundary := daylog.NextMidnight(after)
	r.armedFor = boundary
	r.handle = r.sched.Arm(boundary, func() { r.fire(boundary) })
}

func (r *Reconciler) fire(boundary time.Time) {
	r.handle = 0
	if _, err := r.Split(context.Background(), boundary); err != nil {
		log.Printf("reconcile: split at %s failed: %v", boundary.Format(time.RFC3339), err)
	}
	next := r.sched.Now()
	if next.Before(boundary) {
		next = boundary
	}
	r.arm(next)
}

// Split stops the task running on the day ending at boundary and starts a
// copy of it at boundary on the new day. It returns the new task, or nil if
// nothing was running on that day.
func (r *Reconciler) Split(ctx context.Context, boundary time.Time) (*models.Task, error) {
	p, ok := r.timer.Running()
	oldDay := daylog.DateKey(boundary.Add(-time.Nanosecond))
	if !ok || p.DateKey != oldDay {
		return nil, nil
	}

	stopped, err := r.timer.StopAt(ctx, boundary)
	if err != nil {
		return nil, fmt.Errorf("stop at boundary: %w", err)
	}
	if stopped == nil {
		return nil, nil
	}

	start := boundary
	carry := models.Task{
		ID:           uuid.New().String(),
		Text:         stopped.Text,
		CategoryID:   stopped.CategoryID,
		Memo:         stopped.Memo,
		RunningStart: &start,
		Sessions:     []models.Session{},
	}

	newDay := daylog.DateKey(boundary)
	tasks, err := r.days.Tasks(ctx, newDay)
	if err != nil {
		return nil, err
	}
	tasks = append([]models.Task{carry}, tasks...)
	if err := r.days.Save(ctx, newDay, tasks); err != nil {
		return nil, fmt.Errorf("carry over task: %w", err)
	}
	r.timer.Adopt(timer.Pointer{DateKey: newDay, TaskID: carry.ID, Start: boundary})

	log.Printf("reconcile: split task %s at %s, carried over as %s", stopped.ID, boundary.Format(time.RFC3339), carry.ID)
	r.journal.Log(ctx, "timer.split", map[string]string{
		"from_task": stopped.ID,
		"to_task":   carry.ID,
		"boundary":  boundary.Format(time.RFC3339),
	}, "success", carry.ID, fmt.Sprintf("%s -> %s", oldDay, newDay))
	return &carry, nil
}
