// Package timer owns the single running-session pointer and the per-task
// start/stop lifecycle.
package timer

import (
	"context"
	"log"
	"time"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
)

// Pointer identifies the task currently accruing time.
type Pointer struct {
	DateKey string    `json:"date"`
	TaskID  string    `json:"task_id"`
	Start   time.Time `json:"start"`
}

// Engine runs at most one task timer at a time. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	days    *daylog.Repo
	clock   clock.Clock
	running *Pointer
}

// New creates a timer engine.
func New(days *daylog.Repo, c clock.Clock) *Engine {
	if c == nil {
		c = clock.Real{}
	}
	return &Engine{days: days, clock: c}
}

// Running returns the current pointer.
func (e *Engine) Running() (Pointer, bool) {
	if e.running == nil {
		return Pointer{}, false
	}
	return *e.running, true
}

// IsRunning reports whether the task on date holds the pointer.
func (e *Engine) IsRunning(date, id string) bool {
	return e.running != nil && e.running.DateKey == date && e.running.TaskID == id
}

// Start stops whatever is running and starts the task. Starting the task
// that is already running, or a task that does not exist, does nothing.
func (e *Engine) Start(ctx context.Context, date, id string) error {
	if e.IsRunning(date, id) {
		return nil
	}
	tasks, i, err := e.days.Find(ctx, date, id)
	if err != nil || i < 0 {
		return err
	}

	now := e.clock.Now()
	if e.running != nil {
		if _, err := e.StopAt(ctx, now); err != nil {
			return err
		}
		// The stop may have rewritten this day.
		tasks, i, err = e.days.Find(ctx, date, id)
		if err != nil || i < 0 {
			return err
		}
	}

	tasks[i].RunningStart = &now
	if err := e.days.Save(ctx, date, tasks); err != nil {
		return err
	}
	e.running = &Pointer{DateKey: date, TaskID: id, Start: now}
	return nil
}

// Stop ends the running session if the task holds the pointer.
func (e *Engine) Stop(ctx context.Context, date, id string) error {
	if !e.IsRunning(date, id) {
		return nil
	}
	_, err := e.StopAt(ctx, e.clock.Now())
	return err
}

// Toggle stops the task if it is running and starts it otherwise.
func (e *Engine) Toggle(ctx context.Context, date, id string) error {
	if e.IsRunning(date, id) {
		return e.Stop(ctx, date, id)
	}
	return e.Start(ctx, date, id)
}

// StopAt closes the running session at end and clears the pointer. It
// returns the stopped task, or nil when nothing was running. An end before
// the session start records no session and adds no time.
func (e *Engine) StopAt(ctx context.Context, end time.Time) (*models.Task, error) {
	if e.running == nil {
		return nil, nil
	}
	p := *e.running

	tasks, i, err := e.days.Find(ctx, p.DateKey, p.TaskID)
	if err != nil {
		return nil, err
	}
	if i < 0 || tasks[i].RunningStart == nil {
		e.running = nil
		return nil, nil
	}

	closeSession(&tasks[i], end)
	if err := e.days.Save(ctx, p.DateKey, tasks); err != nil {
		return nil, err
	}
	e.running = nil
	t := tasks[i]
	return &t, nil
}

func closeSession(t *models.Task, end time.Time) {
	start := *t.RunningStart
	t.RunningStart = nil
	if end.Before(start) {
		log.Printf("timer: discarding session for %s ending %s before its start %s",
			t.ID, end.Format(time.RFC3339), start.Format(time.RFC3339))
		return
	}
	t.Sessions = append(t.Sessions, models.Session{Start: start, End: end})
	t.CumulativeTime += int64(end.Sub(start) / time.Second)
}

// Complete toggles the task's completed flag. Completing the running task
// stops it first. It returns nil when the task does not exist.
func (e *Engine) Complete(ctx context.Context, date, id string) (*models.Task, error) {
	task, err := e.days.Get(ctx, date, id)
	if err != nil || task == nil {
		return nil, err
	}
	if !task.Completed && e.IsRunning(date, id) {
		if _, err := e.StopAt(ctx, e.clock.Now()); err != nil {
			return nil, err
		}
	}
	return e.days.Update(ctx, date, id, func(t *models.Task) {
		t.Completed = !t.Completed
	})
}

// Delete removes the task. Deleting the running task drops its open session.
func (e *Engine) Delete(ctx context.Context, date, id string) (bool, error) {
	if e.IsRunning(date, id) {
		e.running = nil
	}
	return e.days.Delete(ctx, date, id)
}

// Adopt installs p as the running pointer. The task's runningStart must
// already be persisted.
func (e *Engine) Adopt(p Pointer) {
	e.running = &p
}

// Elapsed returns the task's tracked seconds including the open session
// when the task holds the pointer. An open session that would be negative
// counts as zero.
func (e *Engine) Elapsed(t models.Task, date string, now time.Time) int64 {
	total := t.CumulativeTime
	if t.RunningStart != nil && e.IsRunning(date, t.ID) {
		if d := Seconds(*t.RunningStart, now); d > 0 {
			total += d
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// Seconds returns the whole seconds from start to end, which may be
// negative if the clock moved backwards.
func Seconds(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Second)
}

// Load rebuilds the pointer from persisted runningStart values on today's
// log and every indexed day. If several tasks claim to be running, the
// latest start wins and the rest are stopped at their own start.
func (e *Engine) Load(ctx context.Context) error {
	e.running = nil

	dates, err := e.days.Dates(ctx)
	if err != nil {
		return err
	}
	today := daylog.DateKey(e.clock.Now())
	seen := map[string]bool{}
	var found []Pointer
	for _, date := range append(dates, today) {
		if seen[date] {
			continue
		}
		seen[date] = true
		tasks, err := e.days.Tasks(ctx, date)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.RunningStart != nil {
				found = append(found, Pointer{DateKey: date, TaskID: t.ID, Start: *t.RunningStart})
			}
		}
	}
	if len(found) == 0 {
		return nil
	}

	latest := 0
	for i, p := range found {
		if p.Start.After(found[latest].Start) {
			latest = i
		}
	}
	for i, p := range found {
		if i == latest {
			continue
		}
		log.Printf("timer: task %s on %s was also running, stopping it at its start", p.TaskID, p.DateKey)
		e.running = &found[i]
		if _, err := e.StopAt(ctx, p.Start); err != nil {
			return err
		}
	}
	e.running = &found[latest]
	return nil
}
